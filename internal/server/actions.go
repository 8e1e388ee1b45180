package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"anime/catalog/internal/domain"
	"anime/catalog/internal/viewstate"

	log "github.com/sirupsen/logrus"
)

var ErrUnknownAction = errors.New("unknown action")

type actionRequest struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

type actionsRequest struct {
	Actions []actionRequest `json:"actions"`
}

// decodeAction maps one wire action onto its reducer.
func decodeAction(a actionRequest) (viewstate.Action, error) {
	switch a.Type {
	case "setSearchText":
		var text string
		if err := decodeValue(a, &text); err != nil {
			return nil, err
		}
		return viewstate.SetSearchText(text), nil
	case "setMinScore":
		var score float64
		if err := decodeValue(a, &score); err != nil {
			return nil, err
		}
		return viewstate.SetMinScore(score), nil
	case "setMaxScore":
		var score float64
		if err := decodeValue(a, &score); err != nil {
			return nil, err
		}
		return viewstate.SetMaxScore(score), nil
	case "clearMinScore":
		return viewstate.ClearMinScore(), nil
	case "clearMaxScore":
		return viewstate.ClearMaxScore(), nil
	case "selectType":
		var name string
		if err := decodeValue(a, &name); err != nil {
			return nil, err
		}
		t, err := domain.ParseAnimeType(name)
		if err != nil {
			return nil, err
		}
		return viewstate.SelectType(t), nil
	case "toggleSort":
		var name string
		if err := decodeValue(a, &name); err != nil {
			return nil, err
		}
		field, err := domain.ParseSortField(name)
		if err != nil {
			return nil, err
		}
		return viewstate.ToggleSort(field), nil
	case "setPage":
		var page int
		if err := decodeValue(a, &page); err != nil {
			return nil, err
		}
		return viewstate.SetPage(page), nil
	case "nextPage":
		return viewstate.NextPage(), nil
	case "prevPage":
		return viewstate.PrevPage(), nil
	case "reset":
		return viewstate.Reset(), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownAction, a.Type)
	}
}

func decodeValue(a actionRequest, v any) error {
	if len(a.Value) == 0 {
		return fmt.Errorf("action %q requires a value", a.Type)
	}
	if err := json.Unmarshal(a.Value, v); err != nil {
		return fmt.Errorf("invalid value for action %q: %w", a.Type, err)
	}
	return nil
}

func decodeActions(reqs []actionRequest) ([]viewstate.Action, error) {
	actions := make([]viewstate.Action, 0, len(reqs))
	for i, req := range reqs {
		action, err := decodeAction(req)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// navigate overlays the preference keys of an address-bar query.
func navigate(q url.Values) viewstate.Action {
	return func(p domain.Preferences) domain.Preferences {
		next, err := viewstate.DecodeQuery(p, q)
		if err != nil {
			log.Warnf("⚠️ Ignoring malformed query preferences: %v", err)
		}
		return next
	}
}
