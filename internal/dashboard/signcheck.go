package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bybitdash/internal/signer"
	"bybitdash/logger"
)

const (
	maxSignCheckBody = 1 << 20

	noteSigned      = "Signature generated on the server."
	noteMissingKeys = "No API keys found in the server environment."
)

var errNotObject = errors.New("body must be a JSON object")

// SignCheck is the response of POST /api/sign-check. The secret itself is
// never part of it.
type SignCheck struct {
	HasAPIKey       bool    `json:"hasApiKey"`
	HasAPISecret    bool    `json:"hasApiSecret"`
	RecvWindow      string  `json:"recvWindow"`
	SampleSignature *string `json:"sampleSignature"`
	Note            string  `json:"note"`
}

func (s *Server) handleSignCheck(c *gin.Context) {
	query, err := readSignCheckQuery(c.Request.Body)
	if err != nil {
		s.log.WithComponent("sign_check").WithError(err).Debug("rejecting sign-check body")
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Bad JSON body"})
		return
	}

	c.JSON(http.StatusOK, s.signCheck(query))
}

func (s *Server) signCheck(query signer.Query) SignCheck {
	creds := s.signer.Credentials()
	result := SignCheck{
		HasAPIKey:    creds.HasKey(),
		HasAPISecret: creds.HasSecret(),
		RecvWindow:   s.signer.RecvWindow(),
		Note:         noteMissingKeys,
	}

	if !creds.Complete() {
		return result
	}

	ts := signer.Millis(s.now())
	sig, err := s.signer.Sign(ts, query.Encode())
	if err != nil {
		s.log.WithComponent("sign_check").WithError(err).Warn("failed to sign sample query")
		return result
	}

	s.log.WithComponent("sign_check").WithFields(logger.Fields{
		"timestamp": ts,
		"params":    len(query),
	}).Debug("sample signature generated")

	result.SampleSignature = &sig
	result.Note = noteSigned
	return result
}

// readSignCheckQuery decodes {"query": {...}}. An empty body and a falsy
// query value both mean an empty query.
func readSignCheckQuery(body io.Reader) (signer.Query, error) {
	if body == nil {
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(body, maxSignCheckBody))
	if err != nil {
		return nil, err
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] != '{' {
		return nil, errNotObject
	}

	var req struct {
		Query json.RawMessage `json:"query"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}

	if isFalsy(req.Query) {
		return nil, nil
	}

	var query signer.Query
	if err := json.Unmarshal(req.Query, &query); err != nil {
		return nil, err
	}
	return query, nil
}

func isFalsy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", `""`, "[]", "{}":
		return true
	}
	if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return f == 0
	}
	return false
}
