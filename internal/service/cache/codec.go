package cache

import (
	"fmt"
	"math"
	"time"

	"FinSight/internal/domain/models"

	"github.com/goccy/go-json"
)

// Wire kinds for the typed envelope used by the redis backend.
const (
	kindInfo      = "info"
	kindKeyed     = "keyed"
	kindStatement = "statement"
	kindPrices    = "prices"
)

type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type periodDTO struct {
	End   time.Time `json:"end"`
	Label string    `json:"label,omitempty"`
}

// statementDTO encodes absent cells as null so the payload stays valid JSON
// (the in-memory representation uses NaN, which JSON cannot carry).
type statementDTO struct {
	Columns []periodDTO           `json:"columns"`
	Rows    map[string][]*float64 `json:"rows"`
}

// Encode serializes a cacheable fetch result into a typed envelope.
// Unsupported types return an error; callers should skip caching them.
func Encode(value any) ([]byte, error) {
	var kind string
	var payload []byte
	var err error

	switch v := value.(type) {
	case models.InfoRecord:
		kind = kindInfo
		payload, err = json.Marshal(v)
	case models.KeyedTable:
		kind = kindKeyed
		payload, err = json.Marshal(v)
	case *models.StatementTable:
		kind = kindStatement
		payload, err = json.Marshal(toStatementDTO(v))
	case *models.PriceSeries:
		kind = kindPrices
		payload, err = json.Marshal(v.Points)
	default:
		return nil, fmt.Errorf("uncacheable type %T", value)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(envelope{Kind: kind, Payload: payload})
}

// Decode reverses Encode.
func Decode(b []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}

	switch env.Kind {
	case kindInfo:
		var r models.InfoRecord
		if err := json.Unmarshal(env.Payload, &r); err != nil {
			return nil, err
		}
		return r, nil
	case kindKeyed:
		var t models.KeyedTable
		if err := json.Unmarshal(env.Payload, &t); err != nil {
			return nil, err
		}
		return t, nil
	case kindStatement:
		var dto statementDTO
		if err := json.Unmarshal(env.Payload, &dto); err != nil {
			return nil, err
		}
		return fromStatementDTO(dto), nil
	case kindPrices:
		var pts []models.PricePoint
		if err := json.Unmarshal(env.Payload, &pts); err != nil {
			return nil, err
		}
		return &models.PriceSeries{Points: pts}, nil
	default:
		return nil, fmt.Errorf("unknown cache kind %q", env.Kind)
	}
}

func toStatementDTO(t *models.StatementTable) statementDTO {
	dto := statementDTO{
		Columns: make([]periodDTO, 0, len(t.Columns)),
		Rows:    make(map[string][]*float64, len(t.Rows)),
	}
	for _, c := range t.Columns {
		dto.Columns = append(dto.Columns, periodDTO{End: c.End, Label: c.Label})
	}
	for name, cells := range t.Rows {
		row := make([]*float64, len(cells))
		for i, v := range cells {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				row[i] = &cells[i]
			}
		}
		dto.Rows[name] = row
	}
	return dto
}

func fromStatementDTO(dto statementDTO) *models.StatementTable {
	cols := make([]models.PeriodColumn, 0, len(dto.Columns))
	for _, c := range dto.Columns {
		cols = append(cols, models.PeriodColumn{End: c.End, Label: c.Label})
	}
	t := models.NewStatementTable(cols)
	for name, row := range dto.Rows {
		for i, v := range row {
			if v != nil {
				t.SetCell(name, i, *v)
			}
		}
	}
	return t
}
