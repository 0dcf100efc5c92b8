package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	combo "github.com/seayoo-io/combo-sdk-go"
	"github.com/seayoo-io/combo-sdk-go/api"
	"github.com/seayoo-io/combo-sdk-go/gm"
	"github.com/seayoo-io/combo-sdk-go/notify"
	"github.com/seayoo-io/combo-sdk-go/transport"
	"github.com/seayoo-io/combo-sdk-go/webhook"
	"go.uber.org/zap"
)

// orderCreator is satisfied by *api.Client.
type orderCreator interface {
	CreateOrder(ctx context.Context, in api.CreateOrderInput) (*api.CreateOrderOutput, error)
}

// demoGame keeps shipped orders and player mail in memory.
type demoGame struct {
	mu        sync.Mutex
	shipped   map[string]notify.ShipOrder
	refunded  map[string]notify.Refund
	mailboxes map[string][]mail

	orders    orderCreator
	notifyURL string
	logger    *zap.Logger
}

type mail struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func newDemoGame(orders orderCreator, notifyURL string, logger *zap.Logger) *demoGame {
	return &demoGame{
		shipped:   make(map[string]notify.ShipOrder),
		refunded:  make(map[string]notify.Refund),
		mailboxes: make(map[string][]mail),
		orders:    orders,
		notifyURL: notifyURL,
		logger:    logger,
	}
}

func (g *demoGame) HandleNotification(_ context.Context, n *notify.Notification) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch p := n.Payload.(type) {
	case *notify.ShipOrder:
		if _, ok := g.shipped[p.OrderID]; ok {
			g.logger.Info("order already shipped", zap.String("order_id", p.OrderID))
			return nil
		}
		g.shipped[p.OrderID] = *p
		g.logger.Info("order shipped",
			zap.String("order_id", p.OrderID),
			zap.String("combo_id", p.ComboID),
			zap.String("product_id", p.ProductID),
			zap.Int64("quantity", p.Quantity),
			zap.Bool("sandbox", p.IsSandbox),
		)
	case *notify.Refund:
		g.refunded[p.OrderID] = *p
		g.logger.Info("order refunded", zap.String("order_id", p.OrderID), zap.String("combo_id", p.ComboID))
	}
	return nil
}

type sendMailArgs struct {
	RoleID  string `json:"role_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type listMailArgs struct {
	RoleID string `json:"role_id"`
}

func (g *demoGame) HandleCommand(_ context.Context, req *gm.Request) (any, error) {
	switch req.Command {
	case "send_mail":
		var args sendMailArgs
		if err := req.BindArgs(&args); err != nil {
			return nil, err
		}
		if args.RoleID == "" || args.Title == "" {
			return nil, gm.NewError(gm.ErrInvalidArgs, "role_id and title are required")
		}
		g.mu.Lock()
		g.mailboxes[args.RoleID] = append(g.mailboxes[args.RoleID], mail{Title: args.Title, Content: args.Content})
		count := len(g.mailboxes[args.RoleID])
		g.mu.Unlock()
		return map[string]int{"mail_count": count}, nil

	case "list_mail":
		var args listMailArgs
		if err := req.BindArgs(&args); err != nil {
			return nil, err
		}
		g.mu.Lock()
		defer g.mu.Unlock()
		return map[string][]mail{"mails": append([]mail{}, g.mailboxes[args.RoleID]...)}, nil

	case "maintenance":
		return nil, gm.NewError(gm.ErrMaintenanceError, "server is under maintenance")

	default:
		return nil, gm.NewError(gm.ErrInvalidCommand, "unknown command %q", req.Command)
	}
}

type createOrderRequest struct {
	ComboID     string         `json:"combo_id"`
	ReferenceID string         `json:"reference_id"`
	ProductID   string         `json:"product_id"`
	Platform    combo.Platform `json:"platform"`
	Quantity    int64          `json:"quantity"`
	Context     string         `json:"context"`
}

// createOrder is called by the game client before it starts a payment.
func (g *demoGame) createOrder(w http.ResponseWriter, r *http.Request) {
	var in createOrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, webhook.DefaultMaxBodyBytes)).Decode(&in); err != nil {
		webhook.WriteText(w, http.StatusBadRequest, "invalid order request")
		return
	}

	out, err := g.orders.CreateOrder(r.Context(), api.CreateOrderInput{
		ReferenceID: in.ReferenceID,
		ComboID:     in.ComboID,
		ProductID:   in.ProductID,
		Platform:    in.Platform,
		NotifyURL:   g.notifyURL,
		Quantity:    in.Quantity,
		Context:     in.Context,
	})
	if err != nil {
		g.logger.Warn("create order failed", zap.Error(err))
		status := http.StatusBadRequest
		if _, ok := transport.IsAPIError(err); ok {
			status = http.StatusBadGateway
		}
		webhook.WriteText(w, status, err.Error())
		return
	}
	body, err := webhook.EncodeJSON(out)
	if err != nil {
		webhook.WriteText(w, http.StatusInternalServerError, err.Error())
		return
	}
	webhook.WriteJSON(w, http.StatusOK, body)
}
