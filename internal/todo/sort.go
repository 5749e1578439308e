package todo

import (
	"sort"
	"strings"
)

// SortTodoLists orders lists undone first, then done, each group by
// case-insensitive title. The slice is sorted in place and returned.
func SortTodoLists(lists []TodoList) []TodoList {
	sort.SliceStable(lists, func(i, j int) bool {
		di, dj := lists[i].IsDone(), lists[j].IsDone()
		if di != dj {
			return !di
		}
		return lessTitle(lists[i].Title, lists[j].Title)
	})
	return lists
}

// PartitionTodoLists moves done lists behind undone ones and keeps the
// existing order inside each group.
func PartitionTodoLists(lists []TodoList) []TodoList {
	sort.SliceStable(lists, func(i, j int) bool {
		return !lists[i].IsDone() && lists[j].IsDone()
	})
	return lists
}

// SortTodos orders todos undone first, then done, each group by
// case-insensitive title.
func SortTodos(todos []Todo) []Todo {
	sort.SliceStable(todos, func(i, j int) bool {
		if todos[i].Done != todos[j].Done {
			return !todos[i].Done
		}
		return lessTitle(todos[i].Title, todos[j].Title)
	})
	return todos
}

func lessTitle(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}
