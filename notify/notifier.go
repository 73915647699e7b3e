package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/discograf/discograf/log"
)

// Notifier renders transient toasts to the user
type Notifier interface {
	Notify(toast Toast)
}

// ConsoleNotifier writes toasts to an io.Writer, one line per toast
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleNotifier creates a notifier writing to out
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

// Notify implements Notifier
func (n *ConsoleNotifier) Notify(toast Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()

	fmt.Fprintf(n.out, "[%s] %s %s\n", toast.Severity, toast.Icon, toast.Message)
}

// LogNotifier emits toasts as structured log events, used where no interactive
// output is attached
type LogNotifier struct {
	Logger *log.Logger
}

// Notify implements Notifier
func (n *LogNotifier) Notify(toast Toast) {
	logger := n.Logger
	if logger == nil {
		logger = log.G
	}

	logger.Info().
		Str("severity", toast.Severity.String()).
		Bool("persistent", toast.Persistent).
		Msg(toast.Message)
}
