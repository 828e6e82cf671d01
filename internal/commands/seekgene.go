package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/shaiso/scauto/internal/domain"
)

// Коды химии seeksoultools.
const (
	// ChemistryCodeVDJ — 5' набор, общий для VDJ и сопутствующего RNA.
	ChemistryCodeVDJ = "DD5V1"

	// ChemistryCodeDefault — 3' набор по умолчанию.
	ChemistryCodeDefault = "DD-Q"
)

// SeekGeneRNABuilder — seeksoultools rna run.
type SeekGeneRNABuilder struct{}

// Chemistry возвращает chemistry построителя.
func (b *SeekGeneRNABuilder) Chemistry() domain.Chemistry {
	return domain.ChemistrySeekGeneRNA
}

// Build строит команду seeksoultools rna run.
func (b *SeekGeneRNABuilder) Build(req *Request) (*Command, error) {
	suffix, err := organismSuffix(req.RefDir)
	if err != nil {
		return nil, err
	}
	fastqs, err := pairedFastqArgs(req)
	if err != nil {
		return nil, err
	}

	code := req.ChemistryCode
	if code == "" {
		code = ChemistryCodeDefault
	}

	name := req.SampleID + "_" + suffix
	args := []string{
		filepath.Join(req.ToolDir, "seeksoultools"), "rna", "run",
		"--samplename", name,
		"--outdir", filepath.Join(req.ResultDir, req.Flowcell, name),
		"--genomeDir", filepath.Join(req.RefDir, "star"),
		"--gtf", filepath.Join(req.RefDir, "genes", "genes.gtf"),
		"--chemistry", code,
		"--core", strconv.Itoa(req.Cores),
		"--include-introns",
	}
	args = append(args, req.ExtraArgs...)
	args = append(args, fastqs...)

	return &Command{Args: args, LogPath: logPath(req, suffix)}, nil
}

// SeekGeneVDJBuilder — seeksoultools vdj run.
type SeekGeneVDJBuilder struct{}

// Chemistry возвращает chemistry построителя.
func (b *SeekGeneVDJBuilder) Chemistry() domain.Chemistry {
	return domain.ChemistrySeekGeneVDJ
}

// Build строит команду seeksoultools vdj run. Требует тип цепи.
func (b *SeekGeneVDJBuilder) Build(req *Request) (*Command, error) {
	suffix, err := organismSuffix(req.RefDir)
	if err != nil {
		return nil, err
	}
	if err := requireArg(b.Chemistry(), "chain", req.Chain); err != nil {
		return nil, err
	}

	var organism string
	switch suffix {
	case "h":
		organism = "human"
	case "m":
		organism = "mouse"
	default:
		return nil, fmt.Errorf("%w: vdj supports human and mouse only: %s", ErrUnknownOrganism, req.RefDir)
	}

	fastqs, err := pairedFastqArgs(req)
	if err != nil {
		return nil, err
	}

	code := req.ChemistryCode
	if code == "" {
		code = ChemistryCodeVDJ
	}

	name := req.SampleID + "_" + suffix
	args := []string{
		filepath.Join(req.ToolDir, "seeksoultools"), "vdj", "run",
		"--samplename", name,
		"--outdir", filepath.Join(req.ResultDir, req.Flowcell, name),
		"--chain", req.Chain,
		"--organism", organism,
		"--chemistry", code,
		"--core", strconv.Itoa(req.Cores),
	}
	args = append(args, req.ExtraArgs...)
	args = append(args, fastqs...)

	return &Command{Args: args, LogPath: logPath(req, suffix)}, nil
}

// SeekGeneFullRNABuilder — seeksoultools fast run (full-length RNA).
type SeekGeneFullRNABuilder struct{}

// Chemistry возвращает chemistry построителя.
func (b *SeekGeneFullRNABuilder) Chemistry() domain.Chemistry {
	return domain.ChemistrySeekGeneFullRNA
}

// Build строит команду seeksoultools fast run.
func (b *SeekGeneFullRNABuilder) Build(req *Request) (*Command, error) {
	suffix, err := organismSuffix(req.RefDir)
	if err != nil {
		return nil, err
	}
	fastqs, err := pairedFastqArgs(req)
	if err != nil {
		return nil, err
	}

	code := req.ChemistryCode
	if code == "" {
		code = ChemistryCodeDefault
	}

	args := []string{
		filepath.Join(req.ToolDir, "seeksoultools"), "fast", "run",
		"--samplename", req.SampleID + "_" + suffix,
		"--outdir", filepath.Join(req.ResultDir, req.Flowcell),
		"--genomeDir", filepath.Join(req.RefDir, "star"),
		"--gtf", filepath.Join(req.RefDir, "genes", "genes.gtf"),
		"--chemistry", code,
		"--core", strconv.Itoa(req.Cores),
		"--include-introns",
	}
	args = append(args, req.ExtraArgs...)
	args = append(args, fastqs...)

	return &Command{Args: args, LogPath: logPath(req, suffix)}, nil
}
