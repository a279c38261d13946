package ill

import (
	"context"
	"time"

	"github.com/stuffbucket/slnpd/internal/server"
	"github.com/stuffbucket/slnpd/internal/slnp"
)

// timeLayout formats wire timestamps, always in UTC.
const timeLayout = "2006-01-02 15:04:05"

// orderFields lists the level-1 parameters of SLNPFLBestellung in the order
// they are copied into Order.
var orderFields = []string{
	"BestellId", "BenutzerNummer", "Titel", "Verfasser", "Verlag",
	"Erscheinungsjahr", "Isbn", "Issn", "Signatur", "AufsatzAutor",
	"AufsatzTitel", "Seitenangabe", "Bemerkung", "Lieferart",
}

// OrderHandler places SLNPFLBestellung orders.
type OrderHandler struct {
	Backend Backend
}

// Handle implements server.Handler.
func (h OrderHandler) Handle(ctx context.Context, req *server.Request) (slnp.Response, error) {
	v := req.ReadOne(orderFields...)
	o := Order{
		ID:            v[0],
		Patron:        v[1],
		Title:         v[2],
		Author:        v[3],
		Publisher:     v[4],
		Year:          v[5],
		ISBN:          v[6],
		ISSN:          v[7],
		Shelfmark:     v[8],
		ArticleAuthor: v[9],
		ArticleTitle:  v[10],
		Pages:         v[11],
		Note:          v[12],
		Delivery:      v[13],
	}
	if o.Delivery == "" {
		o.Delivery = DeliveryLoan
	}
	for _, lib := range req.Read(2, "Sigel", "Bibliothek") {
		if lib[0] == "" {
			return slnp.Response{}, slnp.NewError(slnp.ErrMandParamLacking, "Mandatory parameter Sigel lacking")
		}
		o.Libraries = append(o.Libraries, Library{Sigel: lib[0], Name: lib[1]})
	}
	if len(o.Libraries) == 0 {
		return slnp.Response{}, slnp.NewError(slnp.ErrNoAvailableItem, "No supplying library given for order %s", o.ID)
	}

	rcpt, err := h.Backend.PlaceOrder(ctx, o)
	if err != nil {
		return slnp.Response{}, err
	}

	params := []slnp.Param{
		slnp.Value("PFLNummer", rcpt.Number),
		slnp.Value("OKMsg", rcpt.Message),
	}
	for _, lib := range rcpt.Libraries {
		params = append(params, slnp.Group("Lieferbibliothek",
			slnp.Value("Sigel", lib.Sigel),
			slnp.Value("Bibliothek", lib.Name),
		))
	}
	return slnp.Success(params...), nil
}

// StatusHandler answers SLNPFLStatus.
type StatusHandler struct {
	Backend Backend
}

// Handle implements server.Handler.
func (h StatusHandler) Handle(ctx context.Context, req *server.Request) (slnp.Response, error) {
	id := req.ReadOne("BestellId")[0]
	st, err := h.Backend.OrderStatus(ctx, id)
	if err != nil {
		return slnp.Response{}, err
	}

	params := []slnp.Param{
		slnp.Value("BestellId", st.OrderID),
		slnp.Value("PFLNummer", st.Number),
		slnp.Value("Status", st.State),
	}
	for _, ev := range st.History {
		params = append(params, slnp.Group("Ereignis",
			slnp.Value("Datum", ev.At.Format(timeLayout)),
			slnp.Value("Status", ev.State),
			slnp.Value("Bemerkung", ev.Note),
		))
	}
	return slnp.Success(params...), nil
}

// AliveHandler answers SLNPAlive.
func AliveHandler(_ context.Context, _ *server.Request) (slnp.Response, error) {
	return slnp.Success(
		slnp.Value("OKMsg", "alive"),
		slnp.Value("Zeit", time.Now().UTC().Format(timeLayout)),
	), nil
}

// Register binds the ILL handlers to router.
func Register(router *server.Router, backend Backend) {
	router.Handle(HandlerOrder, OrderHandler{Backend: backend})
	router.Handle(HandlerStatus, StatusHandler{Backend: backend})
	router.HandleFunc(HandlerAlive, AliveHandler)
}
