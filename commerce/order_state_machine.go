package commerce

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/laxmi-narasimha26/b2b-commerce-nexus"
)

const (
	textCodeInvalidTransition = "INVALID_ORDER_STATUS_TRANSITION"
	textCodeTerminalStatus    = "TERMINAL_ORDER_STATUS"

	// ActivityEventOrderStatusChanged records an order lifecycle change.
	ActivityEventOrderStatusChanged = nexus.ActivityEventType("commerce.order.status_changed")
)

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid order status transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrTerminalStatus is returned when attempting to move away from a terminal
// status (delivered, canceled).
var ErrTerminalStatus = goerrors.New("order status is terminal", goerrors.CategoryConflict).
	WithTextCode(textCodeTerminalStatus).
	WithCode(goerrors.CodeConflict)

// ActorRef identifies who/what triggered a transition.
type ActorRef struct {
	ID   string
	Type string
}

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor ActorRef
	Order *Order
	From  OrderStatus
	To    OrderStatus
	Meta  TransitionMetadata
}

// TransitionHook is executed before or after a transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionHookPhase identifies whether a hook ran before or after persistence.
type TransitionHookPhase string

const (
	HookPhaseBefore TransitionHookPhase = "before_transition"
	HookPhaseAfter  TransitionHookPhase = "after_transition"
)

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

// OrderStateMachine defines lifecycle operations for orders.
type OrderStateMachine interface {
	Transition(ctx context.Context, actor ActorRef, order *Order, target OrderStatus, opts ...TransitionOption) (*Order, error)
	CurrentStatus(order *Order) OrderStatus
}

// HookErrorHandler handles errors surfaced by transition hooks.
type HookErrorHandler func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*orderStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *orderStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the sink used to publish lifecycle events.
func WithStateMachineActivitySink(sink nexus.ActivitySink) StateMachineOption {
	return func(sm *orderStateMachine) {
		if sink != nil {
			sm.activitySink = sink
		}
	}
}

// WithStateMachineHookErrorHandler overrides how hook failures are propagated.
// Provide a handler to convert hook errors into domain-specific responses,
// otherwise the default handler panics with guidance for developers.
func WithStateMachineHookErrorHandler(handler HookErrorHandler) StateMachineOption {
	return func(sm *orderStateMachine) {
		if handler != nil {
			sm.hookErrorHandler = handler
		}
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger nexus.Logger) StateMachineOption {
	return func(sm *orderStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

// WithForceTransition bypasses validation rules (use sparingly).
func WithForceTransition() TransitionOption {
	return func(opts *transitionOptions) {
		opts.force = true
	}
}

// WithBeforeTransitionHook adds a hook executed before the status update.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the status update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// NewOrderStateMachine returns the default implementation backed by the
// provided repository.
func NewOrderStateMachine(orders Orders, opts ...StateMachineOption) OrderStateMachine {
	sm := &orderStateMachine{
		orders: orders,
		transitions: map[OrderStatus]map[OrderStatus]struct{}{
			OrderStatusDraft: {
				OrderStatusPendingApproval: {},
				OrderStatusCanceled:        {},
			},
			OrderStatusPendingApproval: {
				OrderStatusApproved: {},
				OrderStatusCanceled: {},
			},
			OrderStatusApproved: {
				OrderStatusProcessing: {},
				OrderStatusOnHold:     {},
				OrderStatusCanceled:   {},
			},
			OrderStatusProcessing: {
				OrderStatusShipped:  {},
				OrderStatusOnHold:   {},
				OrderStatusCanceled: {},
			},
			OrderStatusOnHold: {
				OrderStatusProcessing: {},
				OrderStatusCanceled:   {},
			},
			OrderStatusShipped: {
				OrderStatusDelivered: {},
			},
		},
		now:          time.Now,
		activitySink: nexus.ActivitySinkFunc(nil),
		logger:       nexus.NewDefaultLogger(),
		hookErrorHandler: func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
			return defaultHookErrorHandler(ctx, phase, err, tc)
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type orderStateMachine struct {
	orders           Orders
	transitions      map[OrderStatus]map[OrderStatus]struct{}
	now              func() time.Time
	activitySink     nexus.ActivitySink
	logger           nexus.Logger
	hookErrorHandler HookErrorHandler
}

type transitionOptions struct {
	metadata    TransitionMetadata
	force       bool
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
}

func (o *transitionOptions) cloneMetadata() TransitionMetadata {
	var cloned map[string]any
	if len(o.metadata.Metadata) > 0 {
		cloned = make(map[string]any, len(o.metadata.Metadata))
		for k, v := range o.metadata.Metadata {
			cloned[k] = v
		}
	}

	return TransitionMetadata{
		Reason:   o.metadata.Reason,
		Metadata: cloned,
	}
}

func (sm *orderStateMachine) Transition(ctx context.Context, actor ActorRef, order *Order, target OrderStatus, opts ...TransitionOption) (*Order, error) {
	if order == nil {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"target": target,
			"reason": "order is nil",
		})
	}

	order.EnsureStatus()
	from := order.Status
	if target == "" {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"reason": "target status is empty",
		})
	}

	if from == target {
		return order, nil
	}

	options := sm.buildTransitionOptions(opts...)

	if (from == OrderStatusDelivered || from == OrderStatusCanceled) && !options.force {
		return nil, ErrTerminalStatus.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	if !options.force && !sm.canTransition(from, target) {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	ctxData := TransitionContext{
		Actor: actor,
		Order: order,
		From:  from,
		To:    target,
		Meta:  options.cloneMetadata(),
	}

	if err := sm.runHooks(ctx, options.beforeHooks, ctxData, HookPhaseBefore); err != nil {
		return nil, err
	}

	updated, err := sm.orders.UpdateStatus(ctx, order.ID, target)
	if err != nil {
		return nil, err
	}

	if updated != nil && updated.Status != "" {
		order.Status = updated.Status
	} else {
		order.Status = target
	}

	if err := sm.runHooks(ctx, options.afterHooks, ctxData, HookPhaseAfter); err != nil {
		return nil, err
	}

	sm.recordActivity(ctx, actor, ctxData)

	return order, nil
}

func (sm *orderStateMachine) CurrentStatus(order *Order) OrderStatus {
	if order == nil {
		return ""
	}
	order.EnsureStatus()
	return order.Status
}

func (sm *orderStateMachine) runHooks(ctx context.Context, hooks []TransitionHook, data TransitionContext, phase TransitionHookPhase) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, data); err != nil {
			if sm.hookErrorHandler == nil {
				return err
			}
			return sm.hookErrorHandler(ctx, phase, err, data)
		}
	}
	return nil
}

func (sm *orderStateMachine) canTransition(from, to OrderStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *orderStateMachine) buildTransitionOptions(opts ...TransitionOption) *transitionOptions {
	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

func defaultHookErrorHandler(_ context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
	panic(fmt.Sprintf(
		"commerce: %s transition hook failed: %v\nOrderID: %s from=%s to=%s reason=%s\nProvide commerce.WithStateMachineHookErrorHandler to customize error handling in production.",
		phase,
		err,
		tc.Order.ID,
		tc.From,
		tc.To,
		tc.Meta.Reason,
	))
}

func (sm *orderStateMachine) recordActivity(ctx context.Context, actor ActorRef, tc TransitionContext) {
	metadata := map[string]any{
		"from": string(tc.From),
		"to":   string(tc.To),
	}
	if tc.Meta.Reason != "" {
		metadata["reason"] = tc.Meta.Reason
	}
	for k, v := range tc.Meta.Metadata {
		metadata[k] = v
	}
	if actor.ID != "" {
		metadata["actor_id"] = actor.ID
	}
	if actor.Type != "" {
		metadata["actor_type"] = actor.Type
	}

	event := nexus.ActivityEvent{
		EventType:  ActivityEventOrderStatusChanged,
		UserID:     tc.Order.UserID.String(),
		Metadata:   metadata,
		OccurredAt: sm.now(),
	}

	if sm.activitySink == nil {
		return
	}

	if err := sm.activitySink.Record(ctx, event); err != nil {
		sm.logger.Warn("state machine activity sink error: %v", err)
	}
}
