package view

import (
	"fmt"

	"ambulance-list/internal/models"
)

const (
	ListTag      = "md-list"
	ListItemTag  = "md-list-item"
	HeadlineSlot = "headline"
	SupportSlot  = "supporting-text"
	ContainerID  = "transport-list"
)

const loadErrorMessage = "Transports could not be loaded."

// renderTree maps the view state to its output tree. It is a pure function
// of its arguments.
func renderTree(departmentID string, transports []models.TransportRecord, failed bool) *Node {
	root := el("div", map[string]string{
		"id":                 ContainerID,
		"class":              "transport-list",
		"data-department-id": departmentID,
	})

	if failed {
		root.Children = append(root.Children, el("div", map[string]string{
			"class": "error",
			"role":  "alert",
		}, text(loadErrorMessage)))
	}

	list := el(ListTag, map[string]string{})
	for i := range transports {
		list.Children = append(list.Children, renderItem(&transports[i]))
	}
	root.Children = append(root.Children, list)

	return root
}

func renderItem(t *models.TransportRecord) *Node {
	return el(ListItemTag, map[string]string{"data-transport-id": t.ID},
		el("div", map[string]string{"slot": HeadlineSlot}, text(t.PatientName)),
		el("div", map[string]string{"slot": SupportSlot}, text(supportingText(t))),
	)
}

func supportingText(t *models.TransportRecord) string {
	mobility := t.MobilityStatus.Value
	if mobility == "" {
		mobility = t.MobilityStatus.Code
	}
	s := fmt.Sprintf("%s → %s", t.FromDepartmentID, t.ToDepartmentID)
	if !t.ScheduledDateTime.IsZero() {
		s += " · " + t.ScheduledDateTime.Format("2006-01-02 15:04")
	}
	s += fmt.Sprintf(" · %d min", t.EstimatedDurationMinutes)
	if mobility != "" {
		s += " · " + mobility
	}
	return s
}
