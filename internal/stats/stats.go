package stats

import "todolists/internal/todo"

type Summary struct {
	Lists     int `json:"lists"`
	DoneLists int `json:"done_lists"`
	Todos     int `json:"todos"`
	DoneTodos int `json:"done_todos"`
}

// Summarize counts lists and todos. A list without todos is never done.
func Summarize(lists []todo.TodoList) Summary {
	var s Summary
	for i := range lists {
		s.Lists++
		if lists[i].IsDone() {
			s.DoneLists++
		}
		for _, t := range lists[i].Todos {
			s.Todos++
			if t.Done {
				s.DoneTodos++
			}
		}
	}
	return s
}
