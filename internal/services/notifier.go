package services

import (
	"sync"

	"tradeboard_backend/internal/logger"
	"tradeboard_backend/internal/pkg/email"
)

// Notifier queues transactional email off the request path. Handlers and
// services enqueue; a single worker goroutine drains the queue so a slow
// SMTP round-trip never blocks an HTTP response. A full queue drops the
// message with a warning rather than applying backpressure.
type Notifier struct {
	sender email.Sender
	queue  chan func(email.Sender) error
	wg     sync.WaitGroup
	once   sync.Once
}

const notifierQueueSize = 256

func NewNotifier(sender email.Sender) *Notifier {
	return &Notifier{
		sender: sender,
		queue:  make(chan func(email.Sender) error, notifierQueueSize),
	}
}

// Start launches the drain worker. Call once at boot.
func (n *Notifier) Start() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for task := range n.queue {
			if err := task(n.sender); err != nil {
				logger.WithError(err).Warn("notifier: send failed")
			}
		}
	}()
}

// Stop closes the queue and waits for in-flight sends to finish.
func (n *Notifier) Stop() {
	n.once.Do(func() {
		close(n.queue)
	})
	n.wg.Wait()
}

func (n *Notifier) enqueue(task func(email.Sender) error) {
	select {
	case n.queue <- task:
	default:
		logger.Warn("notifier: queue full, dropping message")
	}
}

func (n *Notifier) Welcome(to, name, role string) {
	n.enqueue(func(s email.Sender) error {
		return s.SendWelcome(to, name, role)
	})
}

func (n *Notifier) ApplicationConfirmation(to, name, jobTitle, company string) {
	n.enqueue(func(s email.Sender) error {
		return s.SendApplicationConfirmation(to, name, jobTitle, company)
	})
}

func (n *Notifier) EmployerAlert(to, jobTitle, applicantName string) {
	n.enqueue(func(s email.Sender) error {
		return s.SendEmployerAlert(to, jobTitle, applicantName)
	})
}

func (n *Notifier) ApplicationRejected(to, name, jobTitle, company string) {
	n.enqueue(func(s email.Sender) error {
		return s.SendApplicationRejected(to, name, jobTitle, company)
	})
}

func (n *Notifier) PasswordReset(to, token string) {
	n.enqueue(func(s email.Sender) error {
		return s.SendPasswordReset(to, token)
	})
}

func (n *Notifier) ExpirationWarning(to, jobTitle string, daysLeft int) {
	n.enqueue(func(s email.Sender) error {
		return s.SendExpirationWarning(to, jobTitle, daysLeft)
	})
}
