package todo

import (
	"reflect"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func titles(lists []TodoList) []string {
	out := make([]string, 0, len(lists))
	for _, l := range lists {
		out = append(out, l.Title)
	}
	return out
}

func TestTodoListIsDone(t *testing.T) {
	cases := []struct {
		name string
		list TodoList
		done bool
		undo bool
	}{
		{name: "empty", list: TodoList{}, done: false, undo: false},
		{name: "all done", list: TodoList{Todos: []Todo{{Done: true}, {Done: true}}}, done: true, undo: false},
		{name: "mixed", list: TodoList{Todos: []Todo{{Done: true}, {Done: false}}}, done: false, undo: true},
		{name: "none done", list: TodoList{Todos: []Todo{{}}}, done: false, undo: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.list.IsDone(); got != tc.done {
				t.Fatalf("IsDone: got %v want %v", got, tc.done)
			}
			if got := tc.list.HasUndone(); got != tc.undo {
				t.Fatalf("HasUndone: got %v want %v", got, tc.undo)
			}
		})
	}
}

func TestNilTodoList(t *testing.T) {
	var l *TodoList
	if l.IsDone() || l.HasUndone() {
		t.Fatal("expected nil list to be neither done nor undone")
	}
}

func TestSortTodoLists(t *testing.T) {
	lists := []TodoList{
		{Title: "work", Todos: []Todo{{Done: true}}},
		{Title: "Home"},
		{Title: "Additional", Todos: []Todo{{Done: true}, {Done: true}}},
		{Title: "groceries", Todos: []Todo{{Done: false}}},
	}

	got := titles(SortTodoLists(lists))
	want := []string{"groceries", "Home", "Additional", "work"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: %#v", got)
	}
}

func TestPartitionTodoListsKeepsGroupOrder(t *testing.T) {
	lists := []TodoList{
		{Title: "a", Todos: []Todo{{Done: true}}},
		{Title: "b"},
		{Title: "c", Todos: []Todo{{Done: true}}},
		{Title: "d", Todos: []Todo{{Done: false}}},
	}

	got := titles(PartitionTodoLists(lists))
	want := []string{"b", "d", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: %#v", got)
	}
}

func TestSortTodos(t *testing.T) {
	todos := []Todo{
		{Title: "walk dog", Done: true},
		{Title: "Buy milk"},
		{Title: "answer mail", Done: true},
		{Title: "call mom"},
	}

	var got []string
	for _, td := range SortTodos(todos) {
		got = append(got, td.Title)
	}
	want := []string{"Buy milk", "call mom", "answer mail", "walk dog"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: %#v", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := []TodoList{{ID: 1, Title: "Home", Todos: []Todo{{ID: 2, Title: "sweep"}}}}

	cp := CloneLists(orig)
	cp[0].Title = "changed"
	cp[0].Todos[0].Done = true
	cp[0].Todos = append(cp[0].Todos, Todo{ID: 3})

	if orig[0].Title != "Home" || orig[0].Todos[0].Done || len(orig[0].Todos) != 1 {
		t.Fatalf("original mutated: %#v", orig[0])
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := CheckPassword(string(hash), "secret")
	if err != nil || !ok {
		t.Fatalf("expected match, got %v %v", ok, err)
	}

	ok, err = CheckPassword(string(hash), "wrong")
	if err != nil || ok {
		t.Fatalf("expected mismatch without error, got %v %v", ok, err)
	}

	if _, err := CheckPassword("not-a-hash", "secret"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
