// Package ill implements the interlibrary loan commands served over SLNP:
// placing an order, querying its status and a liveness probe. Order storage
// is behind Backend so the handlers work with the sqlite journal or an
// in-memory store.
package ill

import (
	"context"
	"fmt"
	"time"
)

// Handler identifiers referenced by the command schema.
const (
	HandlerOrder  = "ill.order"
	HandlerStatus = "ill.status"
	HandlerAlive  = "ill.alive"
)

// Delivery types accepted in Lieferart.
const (
	DeliveryLoan = "Ausleihe"
	DeliveryCopy = "Kopie"
)

// Order states recorded in the history.
const (
	StateOrdered = "bestellt"
)

// Library is a supplying library proposed by the requesting server.
type Library struct {
	Sigel string
	Name  string
}

// Order is an incoming interlibrary loan request.
type Order struct {
	ID            string
	Patron        string
	Title         string
	Author        string
	Publisher     string
	Year          string
	ISBN          string
	ISSN          string
	Shelfmark     string
	ArticleAuthor string
	ArticleTitle  string
	Pages         string
	Note          string
	Delivery      string
	Libraries     []Library
}

// Receipt confirms an accepted order.
type Receipt struct {
	Number    string // PFL number assigned to the order
	Message   string
	Libraries []Library
}

// Event is one entry of an order's history.
type Event struct {
	At    time.Time
	State string
	Note  string
}

// Status describes an order and its history, oldest event first.
type Status struct {
	OrderID string
	Number  string
	State   string
	History []Event
}

// Backend stores orders. Expected rejections (duplicate order, unknown
// order) are returned as *slnp.Error.
type Backend interface {
	PlaceOrder(ctx context.Context, o Order) (Receipt, error)
	OrderStatus(ctx context.Context, orderID string) (Status, error)
}

// FormatNumber renders a sequence number as a PFL number.
func FormatNumber(seq int64) string {
	return fmt.Sprintf("PFL%08d", seq)
}

// AcceptMessage is the OKMsg returned for a placed order.
func AcceptMessage(o Order) string {
	return fmt.Sprintf("Bestellung %s angenommen", o.ID)
}
