package pgstore

import (
	"context"
	"fmt"
	"log"
	"os"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"todolists/internal/database"
)

var testDB *sqlx.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn != "" {
		db, err := sqlx.Connect("pgx", dsn)
		if err != nil {
			log.Fatalf("could not connect to test database: %v", err)
		}
		if _, err := db.Exec(database.Schema); err != nil {
			log.Fatalf("could not apply schema: %v", err)
		}
		testDB = db
	}

	code := m.Run()
	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})) {
		t.Fatal("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(fmt.Errorf("plain")) {
		t.Fatal("plain error is not a unique violation")
	}
}

func TestNilListPredicates(t *testing.T) {
	store := New(nil, "alice")
	if store.HasUndoneTodos(nil) || store.IsDoneTodoList(nil) {
		t.Fatal("expected nil list to be neither done nor undone")
	}
}

// setup resets the tables and creates users alice (password "secret") and bob.
func setup(t *testing.T) *Store {
	t.Helper()
	if testDB == nil {
		t.Skip("TEST_DATABASE_URL not set")
	}

	if _, err := testDB.Exec(`TRUNCATE todos, todolists, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := testDB.Exec(`INSERT INTO users (username, password) VALUES ('alice', $1), ('bob', $1)`, string(hash)); err != nil {
		t.Fatalf("insert users: %v", err)
	}
	return New(testDB, "alice")
}

func checker(t *testing.T) func(bool, error) bool {
	return func(ok bool, err error) bool {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return ok
	}
}

func listID(t *testing.T, s *Store, title string) int64 {
	t.Helper()
	var id int64
	if err := testDB.Get(&id, `SELECT id FROM todolists WHERE title = $1 AND username = $2`, title, s.username); err != nil {
		t.Fatalf("find list %q: %v", title, err)
	}
	return id
}

func todoID(t *testing.T, list int64, title string) int64 {
	t.Helper()
	var id int64
	if err := testDB.Get(&id, `SELECT id FROM todos WHERE title = $1 AND todolist_id = $2`, title, list); err != nil {
		t.Fatalf("find todo %q: %v", title, err)
	}
	return id
}

func TestCreateTodoList(t *testing.T) {
	store := setup(t)
	ctx := context.Background()
	must := checker(t)

	if !must(store.CreateTodoList(ctx, "Home")) {
		t.Fatal("expected create to succeed")
	}
	if must(store.CreateTodoList(ctx, "Home")) {
		t.Fatal("expected duplicate title to fail")
	}
	if !must(store.CreateTodoList(ctx, "home")) {
		t.Fatal("uniqueness should be case-sensitive")
	}
	if !must(New(testDB, "bob").CreateTodoList(ctx, "Home")) {
		t.Fatal("titles are unique per user only")
	}
	if !must(store.ExistsTodoListTitle(ctx, "Home")) {
		t.Fatal("new list not visible")
	}
	if must(store.ExistsTodoListTitle(ctx, "Work")) {
		t.Fatal("unexpected list")
	}

	list, err := store.LoadTodoList(ctx, listID(t, store, "Home"))
	if err != nil || list == nil || list.Title != "Home" || len(list.Todos) != 0 {
		t.Fatalf("unexpected list: %#v %v", list, err)
	}
}

func TestCreateTodo(t *testing.T) {
	store := setup(t)
	ctx := context.Background()
	must := checker(t)

	must(store.CreateTodoList(ctx, "Home"))
	home := listID(t, store, "Home")

	if !must(store.CreateTodo(ctx, home, "Sweep")) {
		t.Fatal("expected create to succeed")
	}
	if must(store.CreateTodo(ctx, home+100, "Sweep")) {
		t.Fatal("expected unknown list to fail")
	}
	if must(New(testDB, "bob").CreateTodo(ctx, home, "Intrude")) {
		t.Fatal("expected foreign list to fail")
	}

	td, err := store.LoadTodo(ctx, home, todoID(t, home, "Sweep"))
	if err != nil || td == nil || td.Title != "Sweep" || td.Done || td.ListID != home {
		t.Fatalf("unexpected todo: %#v %v", td, err)
	}
}

func TestDeleteTodoList(t *testing.T) {
	store := setup(t)
	ctx := context.Background()
	must := checker(t)

	must(store.CreateTodoList(ctx, "Home"))
	home := listID(t, store, "Home")
	must(store.CreateTodo(ctx, home, "Sweep"))

	if must(New(testDB, "bob").DeleteTodoList(ctx, home)) {
		t.Fatal("another user deleted the list")
	}
	if must(store.DeleteTodoList(ctx, home+100)) {
		t.Fatal("expected unknown list to fail")
	}
	if !must(store.DeleteTodoList(ctx, home)) {
		t.Fatal("expected delete to succeed")
	}

	list, err := store.LoadTodoList(ctx, home)
	if err != nil || list != nil {
		t.Fatalf("expected list gone: %#v %v", list, err)
	}
	var count int
	if err := testDB.Get(&count, `SELECT count(*) FROM todos WHERE todolist_id = $1`, home); err != nil || count != 0 {
		t.Fatalf("todos not removed with list: %d %v", count, err)
	}
}

func TestDeleteTodo(t *testing.T) {
	store := setup(t)
	ctx := context.Background()
	must := checker(t)

	must(store.CreateTodoList(ctx, "Home"))
	home := listID(t, store, "Home")
	must(store.CreateTodo(ctx, home, "Sweep"))
	sweep := todoID(t, home, "Sweep")

	if must(store.DeleteTodo(ctx, home, sweep+100)) {
		t.Fatal("expected unknown todo to fail")
	}
	if must(New(testDB, "bob").DeleteTodo(ctx, home, sweep)) {
		t.Fatal("another user deleted the todo")
	}
	if !must(store.DeleteTodo(ctx, home, sweep)) {
		t.Fatal("expected delete to succeed")
	}
	if td, err := store.LoadTodo(ctx, home, sweep); err != nil || td != nil {
		t.Fatalf("expected todo gone: %#v %v", td, err)
	}
}

func TestToggleDoneTodoTwice(t *testing.T) {
	store := setup(t)
	ctx := context.Background()
	must := checker(t)

	must(store.CreateTodoList(ctx, "Home"))
	home := listID(t, store, "Home")
	must(store.CreateTodo(ctx, home, "Sweep"))
	sweep := todoID(t, home, "Sweep")

	if must(store.ToggleDoneTodo(ctx, home, sweep+100)) {
		t.Fatal("expected unknown todo to fail")
	}

	if !must(store.ToggleDoneTodo(ctx, home, sweep)) {
		t.Fatal("expected toggle to succeed")
	}
	td, _ := store.LoadTodo(ctx, home, sweep)
	if !td.Done {
		t.Fatal("expected todo done after one toggle")
	}

	must(store.ToggleDoneTodo(ctx, home, sweep))
	td, _ = store.LoadTodo(ctx, home, sweep)
	if td.Done {
		t.Fatal("expected todo undone after two toggles")
	}
}

func TestCompleteAllTodos(t *testing.T) {
	store := setup(t)
	ctx := context.Background()
	must := checker(t)

	must(store.CreateTodoList(ctx, "Home"))
	home := listID(t, store, "Home")

	if must(store.CompleteAllTodos(ctx, home)) {
		t.Fatal("expected empty list to fail")
	}

	must(store.CreateTodo(ctx, home, "Sweep"))
	must(store.CreateTodo(ctx, home, "Dust"))
	if !must(store.CompleteAllTodos(ctx, home)) {
		t.Fatal("expected complete all to succeed")
	}

	list, _ := store.LoadTodoList(ctx, home)
	if !store.IsDoneTodoList(list) || store.HasUndoneTodos(list) {
		t.Fatalf("expected list done: %#v", list)
	}
}

func TestSetTodoListTitle(t *testing.T) {
	store := setup(t)
	ctx := context.Background()
	must := checker(t)

	must(store.CreateTodoList(ctx, "Home"))
	must(store.CreateTodoList(ctx, "Work"))
	home := listID(t, store, "Home")

	if must(store.SetTodoListTitle(ctx, home+100, "x")) {
		t.Fatal("expected unknown list to fail")
	}
	if must(store.SetTodoListTitle(ctx, home, "Work")) {
		t.Fatal("expected taken title to fail")
	}
	if !must(store.SetTodoListTitle(ctx, home, "House")) {
		t.Fatal("expected rename to succeed")
	}
	list, _ := store.LoadTodoList(ctx, home)
	if list.Title != "House" {
		t.Fatalf("unexpected title: %s", list.Title)
	}
}

func TestSortedTodoLists(t *testing.T) {
	store := setup(t)
	ctx := context.Background()
	must := checker(t)

	for _, title := range []string{"work", "Home", "additional", "Groceries"} {
		must(store.CreateTodoList(ctx, title))
	}
	work := listID(t, store, "work")
	must(store.CreateTodo(ctx, work, "Report"))
	must(store.CompleteAllTodos(ctx, work))
	groceries := listID(t, store, "Groceries")
	must(store.CreateTodo(ctx, groceries, "Milk"))

	must(New(testDB, "bob").CreateTodoList(ctx, "Bob's list"))

	lists, err := store.SortedTodoLists(ctx)
	if err != nil {
		t.Fatalf("sorted lists: %v", err)
	}
	var got []string
	for _, l := range lists {
		got = append(got, l.Title)
	}
	want := []string{"additional", "Groceries", "Home", "work"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: %#v", got)
	}
	if len(lists[1].Todos) != 1 || lists[1].Todos[0].Title != "Milk" {
		t.Fatalf("todos not attached: %#v", lists[1])
	}
	if lists[0].Todos == nil {
		t.Fatal("empty list should carry an empty slice")
	}
}

func TestSortedTodos(t *testing.T) {
	store := setup(t)
	ctx := context.Background()
	must := checker(t)

	must(store.CreateTodoList(ctx, "Home"))
	home := listID(t, store, "Home")
	for _, title := range []string{"walk dog", "Buy milk", "answer mail", "call mom"} {
		must(store.CreateTodo(ctx, home, title))
	}
	must(store.ToggleDoneTodo(ctx, home, todoID(t, home, "walk dog")))
	must(store.ToggleDoneTodo(ctx, home, todoID(t, home, "answer mail")))

	list, _ := store.LoadTodoList(ctx, home)
	todos, err := store.SortedTodos(ctx, list)
	if err != nil {
		t.Fatalf("sorted todos: %v", err)
	}
	var got []string
	for _, td := range todos {
		got = append(got, td.Title)
	}
	want := []string{"Buy milk", "call mom", "answer mail", "walk dog"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: %#v", got)
	}
}

func TestLoadOtherUsersList(t *testing.T) {
	store := setup(t)
	ctx := context.Background()
	must := checker(t)

	bob := New(testDB, "bob")
	must(bob.CreateTodoList(ctx, "Private"))
	id := listID(t, bob, "Private")

	list, err := store.LoadTodoList(ctx, id)
	if err != nil || list != nil {
		t.Fatalf("expected no visibility: %#v %v", list, err)
	}
}

func TestAuthenticate(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	cases := []struct {
		user, pass string
		want       bool
	}{
		{"alice", "secret", true},
		{"bob", "secret", true},
		{"alice", "wrong", false},
		{"nobody", "secret", false},
	}
	for _, tc := range cases {
		ok, err := store.Authenticate(ctx, tc.user, tc.pass)
		if err != nil {
			t.Fatalf("authenticate %s: %v", tc.user, err)
		}
		if ok != tc.want {
			t.Fatalf("authenticate %s/%s: got %v want %v", tc.user, tc.pass, ok, tc.want)
		}
	}
}
