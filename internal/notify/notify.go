// Package notify surfaces failures to the user.
package notify

import (
	"log"
	"sync"

	"github.com/example/quickcliq/internal/executor"
)

const defaultTitle = "QuickCliq"

// Notifier shows messages without blocking the caller.
type Notifier struct {
	title string
	show  func(title, message string) error
	wg    sync.WaitGroup
}

// New returns a Notifier using the platform message box.
func New() *Notifier {
	return &Notifier{title: defaultTitle, show: showMessage}
}

// Notify displays message in the background. Every message is also logged.
func (n *Notifier) Notify(title, message string) {
	if title == "" {
		title = n.title
	}
	log.Printf("notify: %s: %s", title, message)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.show(title, message); err != nil {
			log.Printf("notify: show message: %v", err)
		}
	}()
}

// Report implements executor.Reporter with one message per invocation.
func (n *Notifier) Report(name string, err error) {
	if err == nil {
		return
	}
	n.Notify(n.title, executor.Summary(name, err))
}

// Wait blocks until every displayed message was dismissed.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
