package sessionstore

import "todolists/internal/todo"

// SeedData is the fixture a fresh session starts from.
func SeedData() []todo.TodoList {
	return []todo.TodoList{
		{
			ID:    1,
			Title: "Work Todos",
			Todos: []todo.Todo{
				{ID: 2, ListID: 1, Title: "Get coffee", Done: true},
				{ID: 3, ListID: 1, Title: "Chat with co-workers", Done: true},
				{ID: 4, ListID: 1, Title: "Duck out of meeting", Done: false},
			},
		},
		{
			ID:    5,
			Title: "Home Todos",
			Todos: []todo.Todo{
				{ID: 6, ListID: 5, Title: "Feed the cats", Done: true},
				{ID: 7, ListID: 5, Title: "Go to bed", Done: true},
				{ID: 8, ListID: 5, Title: "Buy milk", Done: true},
				{ID: 9, ListID: 5, Title: "Study for Launch School", Done: true},
			},
		},
		{
			ID:    10,
			Title: "Additional Todos",
			Todos: []todo.Todo{},
		},
		{
			ID:    11,
			Title: "social todos",
			Todos: []todo.Todo{
				{ID: 12, ListID: 11, Title: "Go to Libby's birthday party", Done: false},
			},
		},
	}
}

func maxID(lists []todo.TodoList) int64 {
	var max int64
	for _, l := range lists {
		if l.ID > max {
			max = l.ID
		}
		for _, t := range l.Todos {
			if t.ID > max {
				max = t.ID
			}
		}
	}
	return max
}
