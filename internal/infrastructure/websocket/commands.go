package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"ArticleHunter/internal/domain"
)

// CommandHandler applies inbound commands. Every successful call broadcasts the affected list.
type CommandHandler interface {
	AddKeyword(ctx context.Context, raw string) (bool, error)
	EditKeyword(ctx context.Context, index int, raw string) error
	DeleteKeyword(ctx context.Context, index int) error
	AddSource(ctx context.Context, def domain.SourceDefinition) (bool, error)
	DeleteSource(ctx context.Context, index int) error
}

type command struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type editKeywordPayload struct {
	Index    *int    `json:"index"`
	NewValue *string `json:"newValue"`
}

func decodeCommand(message []byte) (command, error) {
	var cmd command
	if err := json.Unmarshal(message, &cmd); err != nil {
		return command{}, fmt.Errorf("%w: malformed message: %v", domain.ErrValidation, err)
	}
	if cmd.Event == "" {
		return cmd, fmt.Errorf("%w: missing event name", domain.ErrValidation)
	}
	return cmd, nil
}

func dispatch(ctx context.Context, h CommandHandler, cmd command) error {
	switch cmd.Event {
	case domain.EventAddKeyword:
		var keyword string
		if err := decodePayload(cmd, &keyword); err != nil {
			return err
		}
		_, err := h.AddKeyword(ctx, keyword)
		return err

	case domain.EventEditKeyword:
		var p editKeywordPayload
		if err := decodePayload(cmd, &p); err != nil {
			return err
		}
		if p.Index == nil || p.NewValue == nil {
			return fmt.Errorf("%w: %s needs index and newValue", domain.ErrValidation, cmd.Event)
		}
		return h.EditKeyword(ctx, *p.Index, *p.NewValue)

	case domain.EventDeleteKeyword:
		var index int
		if err := decodePayload(cmd, &index); err != nil {
			return err
		}
		return h.DeleteKeyword(ctx, index)

	case domain.EventAddSource:
		var def domain.SourceDefinition
		if err := decodePayload(cmd, &def); err != nil {
			return err
		}
		_, err := h.AddSource(ctx, def)
		return err

	case domain.EventDeleteSource:
		var index int
		if err := decodePayload(cmd, &index); err != nil {
			return err
		}
		return h.DeleteSource(ctx, index)

	default:
		return fmt.Errorf("%w: unknown event %q", domain.ErrValidation, cmd.Event)
	}
}

func decodePayload(cmd command, dst any) error {
	if len(cmd.Data) == 0 || string(cmd.Data) == "null" {
		return fmt.Errorf("%w: %s without data", domain.ErrValidation, cmd.Event)
	}
	if err := json.Unmarshal(cmd.Data, dst); err != nil {
		return fmt.Errorf("%w: %s payload: %v", domain.ErrValidation, cmd.Event, err)
	}
	return nil
}

func commandError(request string, err error) domain.CommandError {
	return domain.CommandError{Request: request, Message: err.Error()}
}
