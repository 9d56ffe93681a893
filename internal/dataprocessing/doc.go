// Package dataprocessing loads institution observations for the rating engine.
// It reads the institution sheet from Excel workbooks, CSV exports and
// Google Sheets, and turns each data row into a camels.Observation.
//
// # Input Layout
//
// The first rows of a sheet are scanned for a header naming both
// "Institution Name" and "Date". Every numeric column of the rating input
// must be present; header matching ignores case and repeated spaces.
// Column order is free.
//
// Cells are read as follows:
//
//   - empty cells and placeholders such as "N/A" or "#DIV/0!" are missing values
//   - thousands separators, percent signs and accounting parentheses are accepted
//   - dates may be ISO text, common day or month-first forms, or Excel serials
//   - any other unreadable cell fails the load with its sheet row and column
//
// # Usage
//
//	obs, err := dataprocessing.Load("banks.xlsx", "")
//	if err != nil {
//	    return err
//	}
//	result, err := engine.Rate(ctx, obs)
//
// Loading from Google Sheets:
//
//	src, err := dataprocessing.NewSheetsSource(ctx, dataprocessing.SheetsConfig{
//	    SpreadsheetID:   id,
//	    CredentialsFile: "service-account.json",
//	}, logger)
//	obs, err := src.Fetch(ctx)
//
// # Error Handling
//
// Content problems wrap camels.ErrInvalidInput together with a
// *camels.ValidationError, so callers can report the offending row:
//
//	var ve *camels.ValidationError
//	if errors.As(err, &ve) {
//	    fmt.Printf("row %d, column %s: %s\n", ve.Row, ve.Field, ve.Message)
//	}
package dataprocessing
