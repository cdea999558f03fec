package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trainer"

// Prometheus counts learner activity and backend failures.
type Prometheus struct {
	answers       *prometheus.CounterVec
	xp            prometheus.Counter
	lessons       *prometheus.CounterVec
	backendErrors *prometheus.CounterVec
	reminders     prometheus.Counter
}

// NewPrometheus registers the trainer collectors with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)

	return &Prometheus{
		answers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Graded answers by result.",
		}, []string{"result"}),
		xp: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "xp_awarded_total",
			Help:      "XP awarded to learners.",
		}),
		lessons: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lessons_completed_total",
			Help:      "Lesson completions, split by first completion.",
		}, []string{"first"}),
		backendErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_errors_total",
			Help:      "Failed persistence backend operations.",
		}, []string{"backend", "op"}),
		reminders: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Streak reminders delivered.",
		}),
	}
}

func (p *Prometheus) AnswerRecorded(correct bool) {
	result := "wrong"
	if correct {
		result = "correct"
	}
	p.answers.WithLabelValues(result).Inc()
}

func (p *Prometheus) XPAwarded(amount int) {
	if amount > 0 {
		p.xp.Add(float64(amount))
	}
}

func (p *Prometheus) LessonCompleted(first bool) {
	p.lessons.WithLabelValues(strconv.FormatBool(first)).Inc()
}

func (p *Prometheus) BackendError(backend, op string) {
	p.backendErrors.WithLabelValues(backend, op).Inc()
}

func (p *Prometheus) ReminderSent() {
	p.reminders.Inc()
}
