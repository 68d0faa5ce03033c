package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	TradeBuy  = "buy"
	TradeSell = "sell"
)

const DefaultCurrency = "USD"

type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	IsAdmin      bool       `db:"is_admin" json:"isAdmin"`
	IsApproved   bool       `db:"is_approved" json:"isApproved"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
}

// JournalSettings is stored as a single JSON column.
type JournalSettings struct {
	Currency       string  `json:"currency" validate:"omitempty,len=3,alpha"`
	InitialCapital float64 `json:"initialCapital" validate:"gte=0"`
	RiskPercent    float64 `json:"riskPercent" validate:"gte=0,lte=100"`
}

func (s JournalSettings) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *JournalSettings) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = JournalSettings{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("journal settings: unsupported column type %T", src)
	}
}

type Journal struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"userId"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Icon        string          `db:"icon" json:"icon"`
	Color       string          `db:"color" json:"color"`
	Settings    JournalSettings `db:"settings" json:"settings"`
	Trades      []Trade         `db:"-" json:"trades,omitempty"`
	IsDefault   bool            `db:"is_default" json:"isDefault"`
	IsTemplate  bool            `db:"is_template" json:"isTemplate"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// StringList is a []string persisted as a JSON array column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("string list: unsupported column type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

type Trade struct {
	ID          string     `db:"id" json:"id"`
	JournalID   string     `db:"journal_id" json:"journalId"`
	UserID      string     `db:"user_id" json:"userId"`
	Symbol      string     `db:"symbol" json:"symbol"`
	TradeType   string     `db:"trade_type" json:"tradeType"`
	Quantity    float64    `db:"quantity" json:"quantity"`
	EntryPrice  float64    `db:"entry_price" json:"entryPrice"`
	ExitPrice   *float64   `db:"exit_price" json:"exitPrice"`
	StopLoss    *float64   `db:"stop_loss" json:"stopLoss"`
	TakeProfit  *float64   `db:"take_profit" json:"takeProfit"`
	Fees        float64    `db:"fees" json:"fees"`
	Playbook    string     `db:"playbook" json:"playbook"`
	Risk        string     `db:"risk" json:"risk"`
	Mood        string     `db:"mood" json:"mood"`
	Rating      int        `db:"rating" json:"rating"`
	Notes       string     `db:"notes" json:"notes"`
	Screenshots StringList `db:"screenshots" json:"screenshots"`
	Tags        StringList `db:"tags" json:"tags"`
	EntryDate   time.Time  `db:"entry_date" json:"entryDate"`
	ExitDate    *time.Time `db:"exit_date" json:"exitDate"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsClosed reports whether the trade has an exit price.
func (t Trade) IsClosed() bool { return t.ExitPrice != nil }

// ClosedAt is the exit date of a closed trade, falling back to the entry date.
func (t Trade) ClosedAt() time.Time {
	if t.ExitDate != nil {
		return *t.ExitDate
	}
	return t.EntryDate
}

// Clone returns a copy that shares no slices or pointers with t.
func (t Trade) Clone() Trade {
	c := t
	c.ExitPrice = cloneFloat(t.ExitPrice)
	c.StopLoss = cloneFloat(t.StopLoss)
	c.TakeProfit = cloneFloat(t.TakeProfit)
	if t.ExitDate != nil {
		d := *t.ExitDate
		c.ExitDate = &d
	}
	if t.Screenshots != nil {
		c.Screenshots = append(StringList(nil), t.Screenshots...)
	}
	if t.Tags != nil {
		c.Tags = append(StringList(nil), t.Tags...)
	}
	return c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

type Playbook struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Setup       string    `db:"setup" json:"setup"`
	EntryRules  string    `db:"entry_rules" json:"entryRules"`
	ExitRules   string    `db:"exit_rules" json:"exitRules"`
	RiskRules   string    `db:"risk_rules" json:"riskRules"`
	Notes       string    `db:"notes" json:"notes"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Overview holds instance-wide counters for the admin dashboard.
type Overview struct {
	Users        int `db:"users" json:"users"`
	PendingUsers int `db:"pending_users" json:"pendingUsers"`
	Journals     int `db:"journals" json:"journals"`
	Trades       int `db:"trades" json:"trades"`
	Playbooks    int `db:"playbooks" json:"playbooks"`
}
