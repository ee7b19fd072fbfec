package push

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Delivery tags which lifecycle produced an inbound notification.
type Delivery int

const (
	// DeliveryColdStart: the process was launched by tapping the
	// notification.
	DeliveryColdStart Delivery = iota
	// DeliveryBackground: tapped while the app was backgrounded.
	DeliveryBackground
	// DeliveryForeground: received while the app was in the foreground.
	DeliveryForeground
)

func (d Delivery) String() string {
	switch d {
	case DeliveryColdStart:
		return "cold_start"
	case DeliveryBackground:
		return "background"
	case DeliveryForeground:
		return "foreground"
	default:
		return "unknown"
	}
}

// Notification is a transient inbound payload from the push provider. Only
// Data is interpreted; unrecognized fields are ignored.
type Notification struct {
	Data map[string]string
}

// Recognized payload fields and the navigation targets they map to.
const (
	fieldOrderID = "id_commande"
	fieldType    = "type"
	typeRating   = "rating"

	TargetOrderDetails = "OrderDetails"
	TargetRating       = "RatingScreen"
)

// Navigator is the navigation capability: jump to a screen with params.
type Navigator interface {
	Navigate(target string, params map[string]string)
}

// NoOpNavigator discards navigation intents.
type NoOpNavigator struct{}

func (n *NoOpNavigator) Navigate(string, map[string]string) {}

// Subscription is a cancelable handle on a message-source channel.
type Subscription interface {
	Cancel()
}

// MessageSource is the push-provider capability emitting inbound
// notifications across the three delivery lifecycles.
type MessageSource interface {
	// InitialNotification returns the notification that launched the
	// process, or nil if it started normally.
	InitialNotification(ctx context.Context) (*Notification, error)

	// OnNotificationOpened fires when a notification is tapped while the
	// app is backgrounded.
	OnNotificationOpened(fn func(*Notification)) Subscription

	// OnMessage fires when a notification arrives while the app is in the
	// foreground.
	OnMessage(fn func(*Notification)) Subscription
}

// Router funnels the three delivery channels into one dispatch policy,
// active only while a session is present. Foreground notifications never
// trigger navigation; they go to the presenter hook instead.
type Router struct {
	log       *zap.Logger
	nav       Navigator
	source    MessageSource
	presenter func(*Notification)

	mu   sync.Mutex
	subs []Subscription
}

type RouterOption func(*Router)

// WithPresenter receives foreground notifications for in-app display.
func WithPresenter(fn func(*Notification)) RouterOption {
	return func(r *Router) {
		r.presenter = fn
	}
}

func NewRouter(log *zap.Logger, nav Navigator, source MessageSource, opts ...RouterOption) *Router {
	r := &Router{
		log:    log,
		nav:    nav,
		source: source,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach arms the router: checks whether a notification launched the
// process and subscribes to the live channels. Call once per session;
// Detach releases everything.
func (r *Router) Attach(ctx context.Context) error {
	r.mu.Lock()
	if len(r.subs) > 0 {
		r.mu.Unlock()
		return nil
	}
	r.subs = append(r.subs,
		r.source.OnNotificationOpened(func(n *Notification) {
			r.dispatch(n, DeliveryBackground)
		}),
		r.source.OnMessage(func(n *Notification) {
			r.dispatch(n, DeliveryForeground)
		}),
	)
	r.mu.Unlock()

	initial, err := r.source.InitialNotification(ctx)
	if err != nil {
		return err
	}
	if initial != nil {
		r.dispatch(initial, DeliveryColdStart)
	}

	return nil
}

// Detach cancels every channel subscription as a unit. No navigation is
// dispatched after Detach returns.
func (r *Router) Detach() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

func (r *Router) dispatch(n *Notification, d Delivery) {
	if n == nil {
		return
	}

	log := r.log.With(zap.String("delivery", d.String()))

	if d == DeliveryForeground {
		// No implicit screen jump while the user is active.
		log.Debug("Foreground notification, handing to presenter")
		if r.presenter != nil {
			r.presenter(n)
		}
		return
	}

	if orderID, ok := n.Data[fieldOrderID]; ok && orderID != "" {
		log.Info("Routing to order details", zap.String("order_id", orderID))
		r.nav.Navigate(TargetOrderDetails, map[string]string{"id": orderID})
		return
	}

	if n.Data[fieldType] == typeRating {
		log.Info("Routing to rating")
		r.nav.Navigate(TargetRating, nil)
		return
	}

	log.Debug("Dropping notification with no recognized fields")
}
