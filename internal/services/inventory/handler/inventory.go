package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"servora-system/internal/apperr"
	"servora-system/internal/database/models"
	"servora-system/internal/inventory"
	"servora-system/internal/services/inventory/ledgerpb"
)

// InventoryHandler serves the ledger over gRPC.
type InventoryHandler struct {
	ledger *inventory.Ledger
	log    log.FieldLogger
}

func NewInventoryHandler(ledger *inventory.Ledger, logger log.FieldLogger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, log: logger}
}

var _ ledgerpb.InventoryLedgerServer = (*InventoryHandler)(nil)

func (s *InventoryHandler) RecordTransaction(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ledgerpb.RecordTransactionRequest
	if err := ledgerpb.Decode(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	if req.RestaurantID <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "restaurant_id is required")
	}
	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid quantity %q", req.Quantity)
	}

	res, err := s.ledger.ApplyTransaction(ctx, inventory.TransactionRequest{
		RestaurantID:    req.RestaurantID,
		InventoryItemID: req.InventoryItemID,
		Type:            models.TransactionType(req.Type),
		Quantity:        qty,
		Notes:           req.Notes,
		Attributes:      req.Attributes,
	})
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}

	out, err := ledgerpb.Encode(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

func (s *InventoryHandler) GetItem(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ledgerpb.GetItemRequest
	if err := ledgerpb.Decode(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	if req.RestaurantID <= 0 || req.InventoryItemID <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "restaurant_id and inventory_item_id are required")
	}

	item, err := s.ledger.GetItem(ctx, req.RestaurantID, req.InventoryItemID)
	if err != nil {
		return nil, apperr.GRPCStatus(err)
	}

	out, err := ledgerpb.Encode(item)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// LoggingInterceptor logs every unary call with its code and duration.
func LoggingInterceptor(logger log.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		entry := logger.WithFields(log.Fields{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start).String(),
		})
		if err != nil && status.Code(err) == codes.Internal {
			entry.WithError(err).Error("rpc failed")
		} else {
			entry.Debug("rpc handled")
		}
		return resp, err
	}
}
