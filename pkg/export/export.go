package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dkuaegis/aegis-study-client/internal/models"
)

// Dataset is tabular export content: ordered headers plus rows keyed by
// header name.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// MemberRoster builds the export dataset for a study's member list.
func MemberRoster(study *models.Study, members []models.Member) Dataset {
	rows := make([]map[string]string, 0, len(members))
	for i, m := range members {
		rows = append(rows, map[string]string{
			"#":              strconv.Itoa(i + 1),
			"Name":           m.Name,
			"Student Number": m.StudentNumber,
			"Joined":         m.JoinedAt.Format("2006-01-02"),
		})
	}
	return Dataset{
		Title:   fmt.Sprintf("%s members", study.Title),
		Headers: []string{"#", "Name", "Student Number", "Joined"},
		Rows:    rows,
	}
}

// AttendanceSheet builds the export dataset for a study's attendance records.
func AttendanceSheet(study *models.Study, records []models.AttendanceRecord) Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		present := "absent"
		checked := ""
		if r.Present {
			present = "present"
			checked = r.CheckedAt.Format(time.RFC3339)
		}
		rows = append(rows, map[string]string{
			"Session":        strconv.FormatInt(r.SessionID, 10),
			"Name":           r.MemberName,
			"Student Number": r.StudentNumber,
			"Status":         present,
			"Checked At":     checked,
		})
	}
	return Dataset{
		Title:   fmt.Sprintf("%s attendance", study.Title),
		Headers: []string{"Session", "Name", "Student Number", "Status", "Checked At"},
		Rows:    rows,
	}
}
