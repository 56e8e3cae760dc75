package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/user/variflex_go/internal/analysis"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)

	rankedRows = 10
)

// pdfStyler holds reusable styling and flow state for PDF generation.
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func()
	lineHeight  float64
	currentY    float64 // manually tracked Y position for flowing content
	pageHeight  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6, // mm
		pageHeight:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["small"] = func() {
		s.pdf.SetFont("Arial", "", 8)
		s.pdf.SetTextColor(90, 90, 90)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(text), pdfContentWidth)
	s.checkAddPage(float64(len(lines)) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.currentY += height
	if s.currentY > s.pageHeight {
		s.newPage()
	}
}

// writeTable draws a bordered table. colWidthsRel are fractions of the
// content width. The header row is repeated after a page break.
func (s *pdfStyler) writeTable(headers []string, colWidthsRel []float64, rows [][]string) {
	colWidths := make([]float64, len(colWidthsRel))
	for i, rel := range colWidthsRel {
		colWidths[i] = rel * pdfContentWidth
	}

	writeRow := func(cells []string, style string, fill bool) {
		s.applyStyle(style)
		x := pdfMargin
		for i, cell := range cells {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(colWidths[i], s.lineHeight, cell, "1", 0, "C", fill, 0, "")
			x += colWidths[i]
		}
		s.currentY += s.lineHeight
	}

	s.checkAddPage(2 * s.lineHeight)
	writeRow(headers, "tableHeader", true)
	for _, row := range rows {
		if s.currentY+s.lineHeight > s.pageHeight {
			s.newPage()
			writeRow(headers, "tableHeader", true)
		}
		writeRow(row, "tableCell", false)
	}
}

func (s *pdfStyler) addImage(imageBytes []byte, imageName string, width float64, height float64, caption string) {
	s.pdf.RegisterImageOptionsReader(imageName, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(imageBytes))
	if info := s.pdf.GetImageInfo(imageName); info != nil && info.Width() > 0 {
		height = width * info.Height() / info.Width()
	}
	if height > s.pageHeight-s.contentTopY-2*s.lineHeight {
		ratio := (s.pageHeight - s.contentTopY - 2*s.lineHeight) / height
		height *= ratio
		width *= ratio
	}

	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	s.pdf.ImageOptions(imageName, pdfMargin+(pdfContentWidth-width)/2, s.currentY, width, height, false,
		gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, "small", "C")
	}
	s.addSpacer(2)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// BuildPDFReport writes the k(T,P) report: run details, one summary row per
// condition, rankings and the supplied figures.
func BuildPDFReport(filepath string, results *analysis.AnalysisResults, figures []Figure) error {
	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle("VariFlex k(T,P) Report", true)
	pdf.AddPage()

	styler := newPDFStyler(pdf)

	numConditions := 0
	if results != nil {
		numConditions = len(results.Results)
	}
	styler.writeParagraph(fmt.Sprintf("VariFlex k(T,P) Report (%d Conditions)", numConditions), "h1", "C")
	styler.addSpacer(3)

	if results == nil || len(results.Results) == 0 {
		styler.writeParagraph("No analysis results to display.", "normal", "L")
		return pdf.OutputFileAndClose(filepath)
	}

	styler.writeParagraph(fmt.Sprintf("Run ID: %s", results.RunID), "normal", "L")
	styler.writeParagraph(fmt.Sprintf("Generated: %s", time.Now().Format(time.RFC3339)), "normal", "L")
	styler.writeParagraph(fmt.Sprintf("Sources: %s", strings.Join(results.Sources, ", ")), "normal", "L")
	styler.writeParagraph(fmt.Sprintf("Chemically significant eigenvalues: |normalised eigenvalue| <= %g", results.SignificanceThreshold), "normal", "L")
	styler.addSpacer(4)

	styler.writeParagraph("Conditions", "h2", "L")
	headers := []string{"T (K)", "P (Torr)", "Eigenvalues", "Significant", "Slowest Eigenvalue", "Separation", "Wells", "Products", "Total k (1/s)"}
	colWidths := []float64{0.09, 0.1, 0.1, 0.1, 0.15, 0.12, 0.08, 0.09, 0.17}
	rows := make([][]string, 0, len(results.Results))
	for _, res := range results.Results {
		rows = append(rows, []string{
			formatFloat(res.Temperature),
			formatFloat(res.Pressure),
			strconv.Itoa(res.NumEigenvalues),
			strconv.Itoa(res.SignificantEigenvalues),
			formatFloat(res.SlowestEigenvalue),
			formatFloat(res.EigenvalueSeparation),
			strconv.Itoa(res.NumWells),
			strconv.Itoa(res.NumProducts),
			formatFloat(res.TotalRate),
		})
	}
	styler.writeTable(headers, colWidths, rows)
	styler.addSpacer(5)

	if len(results.AnalysisErrors) > 0 {
		styler.writeParagraph("Analysis Warnings", "h2", "L")
		for _, msg := range results.AnalysisErrors {
			styler.writeParagraph("- "+msg, "normal", "L")
		}
		styler.addSpacer(5)
	}

	styler.newPage()
	rankings := []struct {
		Title      string
		Data       []analysis.RankedConditionInfo
		ValueLabel string
	}{
		{"Top 10 Conditions by Total Rate Constant", results.RankedByTotalRate, "Total k (1/s)"},
		{"Top 10 Conditions by Eigenvalue Separation", results.RankedBySeparation, "Separation"},
	}
	for _, rankSet := range rankings {
		styler.writeParagraph(rankSet.Title, "h2", "L")
		if len(rankSet.Data) == 0 {
			styler.writeParagraph(fmt.Sprintf("No data for %s.", strings.ToLower(rankSet.Title)), "normal", "L")
			styler.addSpacer(5)
			continue
		}
		var rankRows [][]string
		for i, item := range rankSet.Data {
			if i >= rankedRows {
				break
			}
			rankRows = append(rankRows, []string{
				strconv.Itoa(i + 1),
				formatFloat(item.Temperature),
				formatFloat(item.Pressure),
				formatFloat(item.Value),
			})
		}
		styler.writeTable([]string{"Rank", "T (K)", "P (Torr)", rankSet.ValueLabel}, []float64{0.1, 0.25, 0.25, 0.4}, rankRows)
		styler.addSpacer(5)
	}

	if len(figures) > 0 {
		styler.newPage()
		styler.writeParagraph("Graphical Analysis", "h1", "C")
		styler.addSpacer(5)

		imgWidth := pdfContentWidth * 0.85
		for _, fig := range figures {
			if len(fig.Image) == 0 {
				styler.writeParagraph(fmt.Sprintf("Plot for %s not available.", fig.Title), "normal", "L")
				continue
			}
			styler.writeParagraph(fig.Title, "h2", "L")
			styler.addImage(fig.Image, fig.Key, imgWidth, imgWidth*0.5, fig.Caption)
		}
	}

	if err := pdf.Error(); err != nil {
		slog.Error("pdf generation failed", "path", filepath, "error", err)
	}
	return pdf.OutputFileAndClose(filepath)
}
