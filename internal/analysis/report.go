package analysis

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/xuri/excelize/v2"
)

// DefaultTopN is the number of neighborhoods shown in reports.
const DefaultTopN = 10

// WriteTable renders the console report: run totals, the per-arm comparison
// with lifts, the top neighborhoods, price tiers and room types.
func WriteTable(w io.Writer, s Summary, topN int) error {
	if topN <= 0 {
		topN = DefaultTopN
	}

	fmt.Fprintf(w, "Total listings: %d\n", s.Total)
	fmt.Fprintf(w, "Average price: $%.2f\n", s.MeanPrice)
	fmt.Fprintf(w, "Average bookings: %.1f\n\n", s.MeanBookings)

	groups := tablewriter.NewWriter(w)
	groups.SetHeader([]string{"Metric", "Group A", "Group B", "Lift"})
	groups.SetBorder(false)
	groups.SetAutoWrapText(false)
	groups.Append([]string{"listings", strconv.Itoa(s.A.Count), strconv.Itoa(s.B.Count), ""})
	for _, m := range Metrics() {
		groups.Append([]string{m.String(), fmtMean(m, s.A.mean(m)), fmtMean(m, s.B.mean(m)), fmtLift(s, m)})
	}
	groups.Render()
	fmt.Fprintln(w)

	hoods := tablewriter.NewWriter(w)
	hoods.SetHeader([]string{"#", "Neighborhood", "Listings", "Mean revenue"})
	hoods.SetBorder(false)
	hoods.SetAutoWrapText(false)
	hoods.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, h := range s.TopNeighborhoods(topN) {
		hoods.Append([]string{strconv.Itoa(i + 1), h.Name, strconv.Itoa(h.Count), fmt.Sprintf("%.2f", h.MeanRevenue)})
	}
	hoods.Render()
	fmt.Fprintln(w)

	tiers := tablewriter.NewWriter(w)
	tiers.SetHeader([]string{"Price tier", "Listings", "Revenue"})
	tiers.SetBorder(false)
	for _, t := range s.Tiers {
		tiers.Append([]string{string(t.Tier), strconv.Itoa(t.Count), fmt.Sprintf("%.2f", t.Revenue)})
	}
	tiers.Render()
	fmt.Fprintln(w)

	rooms := tablewriter.NewWriter(w)
	rooms.SetHeader([]string{"Room type", "Listings", "Group A", "Group B"})
	rooms.SetBorder(false)
	for _, r := range s.RoomTypes {
		rooms.Append([]string{r.RoomType, strconv.Itoa(r.Count), strconv.Itoa(r.A), strconv.Itoa(r.B)})
	}
	rooms.Render()
	return nil
}

func fmtMean(m Metric, v float64) string {
	if m == BookingRate {
		return fmt.Sprintf("%.4f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func fmtLift(s Summary, m Metric) string {
	l, err := s.Lift(m)
	if errors.Is(err, ErrUndefinedLift) {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", l)
}

// Sheet names of the workbook report.
const (
	SheetGroups        = "Groups"
	SheetNeighborhoods = "Neighborhoods"
	SheetPriceTiers    = "PriceTiers"
	SheetRoomTypes     = "RoomTypes"
)

// WriteWorkbook writes the summary as an .xlsx file at path, one sheet per
// breakdown. Undefined lifts are left blank.
func WriteWorkbook(path string, s Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetGroups); err != nil {
		return fmt.Errorf("analysis: workbook: %w", err)
	}
	for _, name := range []string{SheetNeighborhoods, SheetPriceTiers, SheetRoomTypes} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("analysis: workbook: new sheet %s: %w", name, err)
		}
	}

	groups := [][]any{{"metric", "group_a", "group_b", "lift_pct"}}
	groups = append(groups, []any{"listings", s.A.Count, s.B.Count, nil})
	for _, m := range Metrics() {
		var lift any
		if l, err := s.Lift(m); err == nil {
			lift = l
		}
		groups = append(groups, []any{m.String(), s.A.mean(m), s.B.mean(m), lift})
	}

	hoods := [][]any{{"neighborhood", "listings", "mean_revenue"}}
	for _, h := range s.Neighborhoods {
		hoods = append(hoods, []any{h.Name, h.Count, h.MeanRevenue})
	}
	tiers := [][]any{{"price_tier", "listings", "revenue"}}
	for _, t := range s.Tiers {
		tiers = append(tiers, []any{string(t.Tier), t.Count, t.Revenue})
	}
	rooms := [][]any{{"room_type", "listings", "group_a", "group_b"}}
	for _, r := range s.RoomTypes {
		rooms = append(rooms, []any{r.RoomType, r.Count, r.A, r.B})
	}

	for sheet, rows := range map[string][][]any{
		SheetGroups:        groups,
		SheetNeighborhoods: hoods,
		SheetPriceTiers:    tiers,
		SheetRoomTypes:     rooms,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("analysis: save workbook %s: %w", path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("analysis: workbook: %w", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("analysis: workbook %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
