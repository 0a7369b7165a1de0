package grpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/todolist/internal/server/models"
)

type todolistSvc interface {
	Create(ctx context.Context, draft models.TodolistDraft) (*models.Todolist, error)
	EnsureOwner(ctx context.Context, todolistID, userID string) error
}

type itemSvc interface {
	Create(ctx context.Context, draft models.ItemDraft) (*models.Item, error)
	Update(ctx context.Context, id string, patch models.ItemPatch) (*models.UpdateResult, error)
	Get(ctx context.Context, id string) (*models.Item, error)
	Delete(ctx context.Context, id string) error
	ListByTodolist(ctx context.Context, todolistID string) ([]*models.Item, error)
}

func (s *GRPCServer) CreateTodolist(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	list, err := s.todolists.Create(ctx, models.TodolistDraft{Name: stringField(req, "name"), UserID: userID})
	if err != nil {
		return nil, s.fail(ctx, "CreateTodolist", err)
	}
	return toStruct(list)
}

func (s *GRPCServer) CreateItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	draft := models.ItemDraft{
		Name:       stringField(req, "name"),
		Content:    stringField(req, "content"),
		TodolistID: stringField(req, "todolistId"),
	}
	if err := s.ensureOwner(ctx, draft.TodolistID); err != nil {
		return nil, s.fail(ctx, "CreateItem", err)
	}

	item, err := s.items.Create(ctx, draft)
	if err != nil {
		return nil, s.fail(ctx, "CreateItem", err)
	}
	return toStruct(item)
}

func (s *GRPCServer) UpdateItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "id")
	if err := s.ensureItemOwner(ctx, id); err != nil {
		return nil, s.fail(ctx, "UpdateItem", err)
	}

	patch := models.ItemPatch{
		Name:    optionalStringField(req, "name"),
		Content: optionalStringField(req, "content"),
	}
	res, err := s.items.Update(ctx, id, patch)
	if err != nil {
		return nil, s.fail(ctx, "UpdateItem", err)
	}
	return toStruct(res)
}

func (s *GRPCServer) DeleteItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "id")
	if err := s.ensureItemOwner(ctx, id); err != nil {
		return nil, s.fail(ctx, "DeleteItem", err)
	}

	if err := s.items.Delete(ctx, id); err != nil {
		return nil, s.fail(ctx, "DeleteItem", err)
	}
	return structpb.NewStruct(map[string]any{"id": id, "deleted": true})
}

func (s *GRPCServer) ListItems(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	todolistID := stringField(req, "todolistId")
	if err := s.ensureOwner(ctx, todolistID); err != nil {
		return nil, s.fail(ctx, "ListItems", err)
	}

	list, err := s.items.ListByTodolist(ctx, todolistID)
	if err != nil {
		return nil, s.fail(ctx, "ListItems", err)
	}
	return toStruct(map[string]any{"items": list})
}

func (s *GRPCServer) ensureOwner(ctx context.Context, todolistID string) error {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "unauthorized")
	}
	return s.todolists.EnsureOwner(ctx, todolistID, userID)
}

func (s *GRPCServer) ensureItemOwner(ctx context.Context, itemID string) error {
	if _, ok := userIDFromContext(ctx); !ok {
		return status.Error(codes.Unauthenticated, "unauthorized")
	}
	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return err
	}
	return s.ensureOwner(ctx, item.TodolistID)
}

func (s *GRPCServer) fail(ctx context.Context, method string, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
	} else {
		s.logger.Info(ctx, "request rejected", "method", method, "error", err)
	}
	return st
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// optionalStringField returns nil when the field is absent.
func optionalStringField(req *structpb.Struct, name string) *string {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil
	}
	s := v.GetStringValue()
	return &s
}

// toStruct converts v through its JSON form, so field names follow the
// json tags of the models.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	return structpb.NewStruct(m)
}
