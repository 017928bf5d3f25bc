package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/coolbeans/kmdp/pkg/query"
)

const (
	MIMESPARQLResults = "application/sparql-results+json"
	MIMESPARQLQuery   = "application/sparql-query"
	MIMECSV           = "text/csv"
)

var sparqlOffers = []string{MIMESPARQLResults, MIMEJSON, MIMECSV}

// maxQueryBytes bounds the size of a query sent in a request body.
const maxQueryBytes = 64 << 10

// sparql evaluates a SELECT query over the triples of the served graph.
// The query comes from ?query=, a form field, or an
// application/sparql-query body.
func (s *Server) sparql(c echo.Context) error {
	text, err := queryText(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return BadRequestError("Missing query", "pass a SPARQL SELECT query in the query parameter")
	}

	mime, err := s.negotiate(c, sparqlOffers)
	if err != nil {
		return err
	}

	_, triples := s.snapshot()
	executor := query.NewExecutor(triples,
		query.WithTimeout(s.queryTimeout),
		query.WithPrefixes(s.registry.Prefixes()))

	result, err := executor.ExecuteString(c.Request().Context(), text)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewAPIError(http.StatusServiceUnavailable, "Query timed out", err.Error())
	case errors.Is(err, query.ErrUnsupported):
		return NewAPIError(http.StatusNotImplemented, "Unsupported query", err.Error())
	case err != nil:
		return BadRequestError("Invalid query", err.Error())
	}

	s.logger.Debug("Query evaluated", "rows", result.Count, "duration", result.Duration)

	if mime == MIMECSV {
		var buf bytes.Buffer
		if err := result.Write(&buf, query.FormatCSV); err != nil {
			return err
		}
		return c.Blob(http.StatusOK, MIMECSV, buf.Bytes())
	}
	data, err := result.MarshalJSON()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, mime, data)
}

func queryText(c echo.Context) (string, error) {
	req := c.Request()
	if req.Method != http.MethodPost {
		return c.QueryParam("query"), nil
	}
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), MIMESPARQLQuery) {
		body, err := io.ReadAll(io.LimitReader(req.Body, maxQueryBytes+1))
		if err != nil {
			return "", BadRequestError("Unreadable query", err.Error())
		}
		if len(body) > maxQueryBytes {
			return "", NewAPIError(http.StatusRequestEntityTooLarge, "Query too large", "")
		}
		return string(body), nil
	}
	return c.FormValue("query"), nil
}
