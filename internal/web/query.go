package web

import (
	"fmt"
	"net/url"
	"strconv"

	"minishield-dashboard/internal/controller"
	"minishield-dashboard/internal/core"
)

// parseLogQuery turns facade query parameters into the controller filter
// set, validating ranges and enumerations up front.
func parseLogQuery(q url.Values) (controller.LogFilters, int64, int64, error) {
	var f controller.LogFilters
	f.IP = q.Get("ip")
	f.Path = q.Get("path")
	f.DomainID = q.Get("domain_id")

	if action := q.Get("action"); action != "" {
		if action != core.ActionBlocked && action != core.ActionFlagged {
			return f, 0, 0, fmt.Errorf("unknown action %q", action)
		}
		f.Action = action
	}
	if source := q.Get("source"); source != "" {
		switch source {
		case core.SourceRuleEngine, core.SourceMLEngine, core.SourceHybrid:
			f.Source = source
		default:
			return f, 0, 0, fmt.Errorf("unknown source %q", source)
		}
	}
	if raw := q.Get("min_score"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 100 {
			return f, 0, 0, fmt.Errorf("min_score must be between 0 and 100")
		}
		f.MinScore = n
	}
	if raw := q.Get("min_confidence"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			return f, 0, 0, fmt.Errorf("min_confidence must be between 0.0 and 1.0")
		}
		f.MinConfidence = v
	}

	var page, perPage int64
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			return f, 0, 0, fmt.Errorf("invalid page %q", raw)
		}
		page = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			return f, 0, 0, fmt.Errorf("invalid limit %q", raw)
		}
		perPage = n
	}
	return f, page, perPage, nil
}
