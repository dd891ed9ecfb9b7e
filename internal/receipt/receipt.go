// Package receipt renders finalized bills to PDF documents. Two layout
// presets exist: a full-page document and a receipt-width bordered slip.
// Both consume the same bill snapshot.
package receipt

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/skarthikeyan/gopos/internal/bill"
)

// Preset names accepted by New.
const (
	PresetClassic = "classic"
	PresetCompact = "compact"
)

// Options configures a renderer independent of its layout preset.
type Options struct {
	// StoreName is printed as the document heading.
	StoreName string
	// OutDir receives the generated PDF files. Created if absent.
	OutDir string
}

// New returns the renderer for the named preset.
func New(preset string, opts Options) (bill.Renderer, error) {
	switch preset {
	case PresetClassic:
		return &Classic{opts: opts}, nil
	case PresetCompact:
		return &Compact{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown receipt preset: %q", preset)
	}
}

// Classic renders the bill onto a full A4 page: heading, dashed separators,
// one line per item and the grand total.
type Classic struct {
	opts Options
}

func (r *Classic) Render(s bill.Snapshot) (string, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Courier", "", 12)

	pdf.CellFormat(190, 10, r.opts.StoreName, "", 1, "C", false, 0, "")
	pdf.CellFormat(190, 10, separator, "", 1, "C", false, 0, "")
	for _, item := range s.Items {
		line := fmt.Sprintf("%-15s %d x %s = %s", item.Product, item.Quantity, money(item.UnitPrice), money(item.LineTotal))
		pdf.CellFormat(190, 10, line, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(190, 10, separator, "", 1, "L", false, 0, "")

	pdf.SetFont("Courier", "B", 14)
	if s.SurchargeBP > 0 {
		pdf.SetFont("Courier", "", 12)
		pdf.CellFormat(190, 10, "Sub Total: "+money(s.Subtotal), "", 1, "L", false, 0, "")
		pdf.CellFormat(190, 10, fmt.Sprintf("GST (%s): %s", percent(s.SurchargeBP), moneyPaise(s.SurchargePaise)), "", 1, "L", false, 0, "")
		pdf.SetFont("Courier", "B", 14)
		pdf.CellFormat(190, 10, "Grand Total: "+moneyPaise(s.GrandTotalPaise()), "", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(190, 10, "Grand Total: "+money(s.Subtotal), "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Courier", "", 10)
	pdf.CellFormat(190, 10, "Date: "+s.GeneratedAt.Format("02-01-2006 15:04:05"), "", 1, "L", false, 0, "")

	return writeOut(pdf, r.opts.OutDir, s.GeneratedAt)
}

// Compact renders the bill onto an 80mm slip with an outer border, a bill
// number and bordered table cells.
type Compact struct {
	opts Options
}

func (r *Compact) Render(s bill.Snapshot) (string, error) {
	height := 60.0 + float64(len(s.Items))*7.0
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: height},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	pdf.Rect(2, 2, pageW-4, pageH-4, "D")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(72, 6, r.opts.StoreName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(72, 5, "Bill No: "+s.BillID, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(36, 6, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(12, 6, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, item := range s.Items {
		pdf.CellFormat(36, 6, item.Product, "1", 0, "L", false, 0, "")
		pdf.CellFormat(12, 6, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 6, money(item.LineTotal), "1", 1, "R", false, 0, "")
	}

	if s.SurchargeBP > 0 {
		pdf.CellFormat(48, 6, "Sub Total", "", 0, "L", false, 0, "")
		pdf.CellFormat(24, 6, money(s.Subtotal), "", 1, "R", false, 0, "")
		pdf.CellFormat(48, 6, "GST ("+percent(s.SurchargeBP)+")", "", 0, "L", false, 0, "")
		pdf.CellFormat(24, 6, moneyPaise(s.SurchargePaise), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(48, 6, "Grand Total", "", 0, "L", false, 0, "")
	pdf.CellFormat(24, 6, moneyPaise(s.GrandTotalPaise()), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(72, 5, s.GeneratedAt.Format("02-01-2006 15:04:05"), "", 1, "C", false, 0, "")

	return writeOut(pdf, r.opts.OutDir, s.GeneratedAt)
}

const separator = "-------------------------------------"

// writeOut saves the document under a timestamp-stamped name, so repeated
// runs never collide.
func writeOut(pdf *fpdf.Fpdf, dir string, ts time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create receipt directory: %w", err)
	}
	path := filepath.Join(dir, Filename(ts))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write receipt: %w", err)
	}
	return path, nil
}

// Filename returns the receipt file name for a bill generated at ts.
func Filename(ts time.Time) string {
	return "bill_" + ts.Format("20060102_150405") + ".pdf"
}

// Open hands the document to the host's default viewer. Purely an OS side
// effect; the core contract ends at the path existing.
func Open(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open receipt %s: %w", path, err)
	}
	return nil
}

// money formats a whole-unit amount. Core PDF fonts have no rupee glyph,
// hence the Rs. prefix.
func money(v int64) string {
	return fmt.Sprintf("Rs.%d", v)
}

// moneyPaise formats an amount held in hundredths of a unit.
func moneyPaise(p int64) string {
	return fmt.Sprintf("Rs.%d.%02d", p/100, p%100)
}

// percent renders basis points as a display percentage, trimming a zero
// fraction (500 -> "5%", 1250 -> "12.5%").
func percent(bp int) string {
	if bp%100 == 0 {
		return fmt.Sprintf("%d%%", bp/100)
	}
	return fmt.Sprintf("%d.%d%%", bp/100, (bp%100)/10)
}
