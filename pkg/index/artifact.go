package index

import (
	"encoding/json"
	"time"

	"github.com/yurifrl/bankrec/pkg/models"
)

// statementArtifact is the on-disk form of one statement.
type statementArtifact struct {
	StatementID     string             `json:"statementId"`
	GeneratedAt     time.Time          `json:"generatedAt"`
	Source          models.Source      `json:"source"`
	Account         models.Account     `json:"account"`
	Balances        models.Balances    `json:"balances"`
	StatementNumber *int               `json:"statementNumber"`
	StatementYear   *int               `json:"statementYear"`
	Operations      []models.Operation `json:"operations"`
	RawLines        []string           `json:"rawStatementLines"`
}

func newStatementArtifact(st *models.Statement, generatedAt time.Time) statementArtifact {
	ops := st.Operations
	if ops == nil {
		ops = []models.Operation{}
	}
	raw := st.RawLines
	if raw == nil {
		raw = []string{}
	}
	return statementArtifact{
		StatementID:     st.StatementID,
		GeneratedAt:     generatedAt,
		Source:          st.Source,
		Account:         st.Account,
		Balances:        st.Balances,
		StatementNumber: st.StatementNumber,
		StatementYear:   st.StatementYear,
		Operations:      ops,
		RawLines:        raw,
	}
}

func (a statementArtifact) statement() *models.Statement {
	return &models.Statement{
		StatementID:     a.StatementID,
		Source:          a.Source,
		Account:         a.Account,
		Balances:        a.Balances,
		StatementNumber: a.StatementNumber,
		StatementYear:   a.StatementYear,
		Operations:      a.Operations,
		RawLines:        a.RawLines,
	}
}

func encode(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
