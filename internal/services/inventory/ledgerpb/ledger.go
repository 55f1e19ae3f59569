// Package ledgerpb is the wire contract of the inventory ledger service.
// Messages travel as google.protobuf.Struct so both ends share one codec.
package ledgerpb

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "servora.inventory.v1.InventoryLedger"

	RecordTransactionMethod = "/" + ServiceName + "/RecordTransaction"
	GetItemMethod           = "/" + ServiceName + "/GetItem"
)

type RecordTransactionRequest struct {
	RestaurantID    int64                  `json:"restaurant_id"`
	InventoryItemID int64                  `json:"inventory_item_id"`
	Type            string                 `json:"type"`
	Quantity        string                 `json:"quantity"`
	Notes           *string                `json:"notes,omitempty"`
	Attributes      map[string]interface{} `json:"attributes,omitempty"`
}

type GetItemRequest struct {
	RestaurantID    int64 `json:"restaurant_id"`
	InventoryItemID int64 `json:"inventory_item_id"`
}

// Encode turns any JSON-serialisable value into a Struct.
func Encode(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// Decode fills v from s.
func Decode(s *structpb.Struct, v interface{}) error {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

type InventoryLedgerServer interface {
	RecordTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterInventoryLedgerServer(s grpc.ServiceRegistrar, srv InventoryLedgerServer) {
	s.RegisterService(&InventoryLedger_ServiceDesc, srv)
}

func _InventoryLedger_RecordTransaction_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryLedgerServer).RecordTransaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RecordTransactionMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryLedgerServer).RecordTransaction(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _InventoryLedger_GetItem_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryLedgerServer).GetItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetItemMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryLedgerServer).GetItem(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var InventoryLedger_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryLedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RecordTransaction", Handler: _InventoryLedger_RecordTransaction_Handler},
		{MethodName: "GetItem", Handler: _InventoryLedger_GetItem_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "servora/inventory/v1/ledger",
}

type InventoryLedgerClient interface {
	RecordTransaction(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetItem(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type inventoryLedgerClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryLedgerClient(cc grpc.ClientConnInterface) InventoryLedgerClient {
	return &inventoryLedgerClient{cc}
}

func (c *inventoryLedgerClient) RecordTransaction(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RecordTransactionMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *inventoryLedgerClient) GetItem(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetItemMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
