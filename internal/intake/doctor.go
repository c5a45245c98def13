package intake

import (
	"fmt"
	"os"
	"strings"
)

// doctorProbes are the synthetic documents fed to backends that can be
// exercised without a binary fixture. Each probe must surface the
// sentinel line in the converted text.
const (
	doctorSentinel    = "1. Full Legal Name"
	doctorMarkdownDoc = "# Probe\n\n1. Full Legal Name\n"
	doctorHTMLDoc     = "<html><body><p>1. Full Legal Name</p></body></html>"
	doctorTextDoc     = "1. Full Legal Name\n"
)

// Doctor runs the self-diagnosis pass: conversion backends, pattern
// dictionary integrity, and configuration sanity. Failed checks make
// the report unhealthy; static capability listings do not.
func (s *Service) Doctor() *DoctorReport {
	report := &DoctorReport{Healthy: true}

	report.Checks = append(report.Checks, s.probeBackend("backend:text", "probe.txt", doctorTextDoc))
	report.Checks = append(report.Checks, s.probeBackend("backend:markdown", "probe.md", doctorMarkdownDoc))
	report.Checks = append(report.Checks, s.probeBackend("backend:html", "probe.html", doctorHTMLDoc))

	// Binary formats cannot be synthesized inline; report the wired
	// capability instead of a live probe.
	report.Checks = append(report.Checks, CheckResult{
		Name:   "backend:pdf",
		Status: CheckStatusStatic,
		Detail: "text extraction plus structural probe; needs a real document to exercise",
	})
	report.Checks = append(report.Checks, CheckResult{
		Name:   "backend:docx",
		Status: CheckStatusStatic,
		Detail: "paragraph text extraction; needs a real document to exercise",
	})

	report.Checks = append(report.Checks, s.checkDictionary())
	report.Checks = append(report.Checks, s.checkConfiguration())

	for _, c := range report.Checks {
		if c.Status == CheckStatusFailed {
			report.Healthy = false
			break
		}
	}
	return report
}

// probeBackend converts a synthetic document and verifies the sentinel
// line survives
func (s *Service) probeBackend(name, filename, content string) CheckResult {
	doc, err := s.engine.ConvertReader(strings.NewReader(content), filename)
	if err != nil {
		return CheckResult{
			Name:   name,
			Status: CheckStatusFailed,
			Detail: err.Error(),
		}
	}
	if !strings.Contains(doc.Text, doctorSentinel) {
		return CheckResult{
			Name:   name,
			Status: CheckStatusFailed,
			Detail: fmt.Sprintf("probe text lost in conversion (got %q)", doc.Text),
		}
	}
	return CheckResult{
		Name:   name,
		Status: CheckStatusOK,
		Detail: fmt.Sprintf("converted %s probe", doc.Format),
	}
}

// checkDictionary verifies the loaded pattern dictionary end to end by
// running the probe line through the extractor
func (s *Service) checkDictionary() CheckResult {
	dict := s.extractor.Dictionary()

	triggers := len(dict.Triggers())
	if triggers == 0 {
		return CheckResult{
			Name:   "dictionary",
			Status: CheckStatusFailed,
			Detail: "no trigger phrases loaded",
		}
	}

	result := s.extractor.Extract(doctorSentinel + "\n")
	if result.FieldCount() == 0 || result.ParentCount() == 0 {
		return CheckResult{
			Name:   "dictionary",
			Status: CheckStatusFailed,
			Detail: "probe line did not expand into a parent field",
		}
	}

	return CheckResult{
		Name:   "dictionary",
		Status: CheckStatusOK,
		Detail: fmt.Sprintf("%d triggers, %d expansion rules, %d form patterns",
			triggers, dict.ExpansionRuleCount(), dict.FormPatternCount()),
	}
}

// checkConfiguration reports on the runtime settings the service was
// built with
func (s *Service) checkConfiguration() CheckResult {
	if s.maxFileSize <= 0 {
		return CheckResult{
			Name:   "configuration",
			Status: CheckStatusFailed,
			Detail: fmt.Sprintf("max file size must be positive, got %d", s.maxFileSize),
		}
	}

	intakeDir := s.pathValidator.IntakeDirectory()
	if _, err := os.Stat(intakeDir); os.IsNotExist(err) {
		return CheckResult{
			Name:   "configuration",
			Status: CheckStatusOK,
			Detail: fmt.Sprintf("intake directory %s does not exist yet; it will be used once created", intakeDir),
		}
	}

	detail := fmt.Sprintf("intake directory %s, max file size %d bytes", intakeDir, s.maxFileSize)
	if s.cache == nil {
		detail += ", caching disabled"
	} else {
		detail += fmt.Sprintf(", %d cached results", s.cache.ItemCount())
	}
	return CheckResult{
		Name:   "configuration",
		Status: CheckStatusOK,
		Detail: detail,
	}
}
