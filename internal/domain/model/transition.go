package model

// OrderEvent is an input to the order state machine.
type OrderEvent string

const (
	EventSelectOnChain    OrderEvent = "select_onchain"
	EventSelectProcessor  OrderEvent = "select_processor"
	EventSelectManual     OrderEvent = "select_manual"
	EventOnChainConfirmed OrderEvent = "onchain_confirmed"
	EventOnChainUnderpaid OrderEvent = "onchain_underpaid"
	EventOnChainOverpaid  OrderEvent = "onchain_overpaid"
	EventCaptured         OrderEvent = "captured"
	EventManualConfirmed  OrderEvent = "manual_confirmed"
	EventCancel           OrderEvent = "cancel"
)

type transitionKey struct {
	from  OrderStatus
	event OrderEvent
}

// transitions lists every allowed (state, event) pair. Anything absent is rejected.
var transitions = map[transitionKey]OrderStatus{
	{OrderStatusPending, EventSelectOnChain}:   OrderStatusAwaitingOnChain,
	{OrderStatusPending, EventSelectProcessor}: OrderStatusAwaitingProcessor,
	{OrderStatusPending, EventSelectManual}:    OrderStatusAwaitingManual,

	{OrderStatusAwaitingOnChain, EventOnChainConfirmed}: OrderStatusPaidOnChain,
	{OrderStatusAwaitingOnChain, EventOnChainUnderpaid}: OrderStatusUnderpaid,
	{OrderStatusAwaitingOnChain, EventOnChainOverpaid}:  OrderStatusOverpaid,

	{OrderStatusAwaitingProcessor, EventCaptured}:     OrderStatusPaidProcessor,
	{OrderStatusAwaitingManual, EventManualConfirmed}: OrderStatusPaidManual,

	{OrderStatusPending, EventCancel}:           OrderStatusCancelled,
	{OrderStatusAwaitingOnChain, EventCancel}:   OrderStatusCancelled,
	{OrderStatusAwaitingProcessor, EventCancel}: OrderStatusCancelled,
	{OrderStatusAwaitingManual, EventCancel}:    OrderStatusCancelled,
	{OrderStatusUnderpaid, EventCancel}:         OrderStatusCancelled,
}

// Next returns the status reached from current on event, or false when the event is not accepted there.
func Next(current OrderStatus, event OrderEvent) (OrderStatus, bool) {
	next, ok := transitions[transitionKey{from: current, event: event}]
	return next, ok
}

// SelectEvent maps a payment channel to the event that opens it.
func SelectEvent(channel Channel) OrderEvent {
	switch channel {
	case ChannelOnChain:
		return EventSelectOnChain
	case ChannelProcessor:
		return EventSelectProcessor
	default:
		return EventSelectManual
	}
}

// AwaitingStatus returns the status an order holds while waiting on channel.
func AwaitingStatus(channel Channel) OrderStatus {
	next, _ := Next(OrderStatusPending, SelectEvent(channel))
	return next
}
