package metrics

import "fmt"

// builtins are the aggregate metrics computable from raw context entries
// when a criterion's metric name has no direct context value.
// Missing input keys default to zero; malformed present values error.
var builtins = map[string]func(Context) (float64, error){
	"test_pass_rate":    computeTestPassRate,
	"code_coverage":     computeCodeCoverage,
	"performance_score": computePerformanceScore,
	"security_score":    computeSecurityScore,
	"quality_score":     computeQualityScore,
}

// BuiltinNames returns the names of all built-in aggregate metrics.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	return names
}

// computeTestPassRate derives the percentage of passing tests from
// totalTests and passedTests. Zero tests counts as a clean slate.
func computeTestPassRate(c Context) (float64, error) {
	total, ok, err := c.Value("totalTests")
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("test_pass_rate requires totalTests in the context")
	}
	if total == 0 {
		return 100, nil
	}
	passed, err := c.Float("passedTests")
	if err != nil {
		return 0, err
	}
	return clamp(passed / total * 100), nil
}

// computeCodeCoverage passes through the raw coverage measurement, either
// as a percentage under "coverage" or as coveredLines/totalLines.
func computeCodeCoverage(c Context) (float64, error) {
	if v, ok, err := c.Value("coverage"); err != nil {
		return 0, err
	} else if ok {
		return clamp(v), nil
	}

	total, ok, err := c.Value("totalLines")
	if err != nil {
		return 0, err
	}
	if !ok || total == 0 {
		return 0, fmt.Errorf("code_coverage requires coverage or coveredLines/totalLines in the context")
	}
	covered, err := c.Float("coveredLines")
	if err != nil {
		return 0, err
	}
	return clamp(covered / total * 100), nil
}

// computePerformanceScore starts from 100 and deducts for degradation
// beyond the latency, memory, and CPU budgets.
func computePerformanceScore(c Context) (float64, error) {
	rt, err := c.Float("responseTime")
	if err != nil {
		return 0, err
	}
	mem, err := c.Float("memoryUsage")
	if err != nil {
		return 0, err
	}
	cpu, err := c.Float("cpuUsage")
	if err != nil {
		return 0, err
	}

	score := 100.0
	if rt > 100 {
		score -= (rt - 100) / 10
	}
	if mem > 512 {
		score -= (mem - 512) / 50
	}
	if cpu > 80 {
		score -= cpu - 80
	}
	return clamp(score), nil
}

// computeSecurityScore deducts per vulnerability, weighted by severity,
// then scales by the security-test pass ratio when security tests ran.
func computeSecurityScore(c Context) (float64, error) {
	crit, err := c.Float("vulnerabilities_critical")
	if err != nil {
		return 0, err
	}
	high, err := c.Float("vulnerabilities_high")
	if err != nil {
		return 0, err
	}
	med, err := c.Float("vulnerabilities_medium")
	if err != nil {
		return 0, err
	}
	low, err := c.Float("vulnerabilities_low")
	if err != nil {
		return 0, err
	}

	score := 100 - crit*25 - high*10 - med*5 - low*1

	total, err := c.Float("securityTestsTotal")
	if err != nil {
		return 0, err
	}
	if total > 0 {
		passed, err := c.Float("securityTestsPassed")
		if err != nil {
			return 0, err
		}
		score *= passed / total
	}
	return clamp(score), nil
}

// computeQualityScore combines the maintainability index with deductions
// for code smells and duplicated blocks.
func computeQualityScore(c Context) (float64, error) {
	maintainability, ok, err := c.Value("maintainabilityIndex")
	if err != nil {
		return 0, err
	}
	if !ok {
		maintainability = 100
	}
	smells, err := c.Float("codeSmells")
	if err != nil {
		return 0, err
	}
	duplicated, err := c.Float("duplicatedBlocks")
	if err != nil {
		return 0, err
	}
	return clamp(maintainability - smells*0.5 - duplicated*2), nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
