package clients

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"

	"servora-system/internal/apperr"
	"servora-system/internal/inventory"
	"servora-system/internal/services/inventory/ledgerpb"
)

const callTimeout = 5 * time.Second

type GRPCClients struct {
	Ledger     *LedgerClient
	ledgerConn *grpc.ClientConn
}

// NewGRPCClients dials the inventory ledger service. The connection is lazy,
// so an unreachable service surfaces on the first call rather than here.
func NewGRPCClients(inventoryAddr string, opts ...grpc.DialOption) (*GRPCClients, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}

	ledgerConn, err := grpc.NewClient(inventoryAddr, opts...)
	if err != nil {
		return nil, fmt.Errorf("inventory service connection failed: %v", err)
	}

	log.WithField("addr", inventoryAddr).Info("inventory ledger client configured")
	return &GRPCClients{
		Ledger:     NewLedgerClient(ledgerpb.NewInventoryLedgerClient(ledgerConn)),
		ledgerConn: ledgerConn,
	}, nil
}

func (c *GRPCClients) Close() {
	if c != nil && c.ledgerConn != nil {
		c.ledgerConn.Close()
	}
}

func (c *GRPCClients) IsLedgerServiceHealthy() bool {
	if c == nil || c.ledgerConn == nil {
		return false
	}
	state := c.ledgerConn.GetState()
	return state != connectivity.Shutdown && state != connectivity.TransientFailure
}

// LedgerClient records inventory transactions through the remote ledger
// service. It mirrors the in-process inventory.Ledger methods.
type LedgerClient struct {
	client ledgerpb.InventoryLedgerClient
}

func NewLedgerClient(client ledgerpb.InventoryLedgerClient) *LedgerClient {
	return &LedgerClient{client: client}
}

func (c *LedgerClient) ApplyTransaction(ctx context.Context, req inventory.TransactionRequest) (*inventory.TransactionResult, error) {
	in, err := ledgerpb.Encode(ledgerpb.RecordTransactionRequest{
		RestaurantID:    req.RestaurantID,
		InventoryItemID: req.InventoryItemID,
		Type:            string(req.Type),
		Quantity:        req.Quantity.String(),
		Notes:           req.Notes,
		Attributes:      req.Attributes,
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to encode request")
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	out, err := c.client.RecordTransaction(ctx, in)
	if err != nil {
		return nil, apperr.FromGRPC(err)
	}

	var res inventory.TransactionResult
	if err := ledgerpb.Decode(out, &res); err != nil {
		return nil, apperr.Internal(err, "failed to decode response")
	}
	return &res, nil
}

func (c *LedgerClient) GetItem(ctx context.Context, restaurantID, id int64) (*inventory.ItemView, error) {
	in, err := ledgerpb.Encode(ledgerpb.GetItemRequest{RestaurantID: restaurantID, InventoryItemID: id})
	if err != nil {
		return nil, apperr.Internal(err, "failed to encode request")
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	out, err := c.client.GetItem(ctx, in)
	if err != nil {
		return nil, apperr.FromGRPC(err)
	}

	var item inventory.ItemView
	if err := ledgerpb.Decode(out, &item); err != nil {
		return nil, apperr.Internal(err, "failed to decode response")
	}
	return &item, nil
}
