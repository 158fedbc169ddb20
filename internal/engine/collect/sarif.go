package collect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/irahardianto/shipgate/internal/engine/metrics"
)

// SarifCollector derives vulnerability counts from a SARIF v2.1.0 report,
// feeding the security-score computation.
type SarifCollector struct{}

// NewSarifCollector creates a new SarifCollector.
func NewSarifCollector() *SarifCollector {
	return &SarifCollector{}
}

// Collect buckets SARIF results by severity. A result with a
// security-severity property of 9.0 or above counts as critical;
// otherwise the SARIF level decides: error → high, warning → medium,
// note/none → low.
func (c *SarifCollector) Collect(_ context.Context, data []byte) (metrics.Context, error) {
	rep, err := sarif.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing SARIF report: %w", err)
	}

	var critical, high, medium, low int
	for _, run := range rep.Runs {
		for _, res := range run.Results {
			if securitySeverity(res.Properties) >= 9.0 {
				critical++
				continue
			}

			level := "note"
			if res.Level != nil {
				level = *res.Level
			}
			switch strings.ToLower(level) {
			case "error":
				high++
			case "warning":
				medium++
			default:
				low++
			}
		}
	}

	return metrics.Context{
		"vulnerabilities_critical": critical,
		"vulnerabilities_high":     high,
		"vulnerabilities_medium":   medium,
		"vulnerabilities_low":      low,
		"security_issues":          critical + high + medium + low,
	}, nil
}

// securitySeverity extracts the numeric security-severity property some
// scanners attach, or 0 when absent.
func securitySeverity(props map[string]interface{}) float64 {
	raw, ok := props["security-severity"]
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
