package model

import "encoding/json"

// Directive is an inbound control request addressed to one endpoint.
type Directive struct {
	Namespace        string
	Name             string
	Instance         string
	PayloadVersion   string
	MessageID        string
	CorrelationToken string
	EndpointID       string
	Token            string
	Payload          json.RawMessage
}

// Command is what a directive asks the hub to do with an item. Value is a
// string or a number.
type Command struct {
	EndpointID    string
	ItemName      string
	HandleGeneric bool
	Namespace     string
	Method        string
	Value         any
}

// HubUpdate is a raw state change reported by the hub for one item.
type HubUpdate struct {
	ItemName string
	Value    any
}
