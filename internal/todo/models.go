package todo

type User struct {
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password"`
}

type Todo struct {
	ID     int64  `json:"id" db:"id"`
	ListID int64  `json:"todolist_id" db:"todolist_id"`
	Title  string `json:"title" db:"title"`
	Done   bool   `json:"done" db:"done"`
}

type TodoList struct {
	ID    int64  `json:"id" db:"id"`
	Title string `json:"title" db:"title"`
	Todos []Todo `json:"todos" db:"-"`
}

// IsDone reports whether the list has at least one todo and all of them are done.
func (l *TodoList) IsDone() bool {
	if l == nil || len(l.Todos) == 0 {
		return false
	}
	return !l.HasUndone()
}

func (l *TodoList) HasUndone() bool {
	if l == nil {
		return false
	}
	for _, t := range l.Todos {
		if !t.Done {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no memory with l.
func (l TodoList) Clone() TodoList {
	out := l
	if l.Todos != nil {
		out.Todos = make([]Todo, len(l.Todos))
		copy(out.Todos, l.Todos)
	}
	return out
}

// CloneLists deep-copies every list and its todos.
func CloneLists(lists []TodoList) []TodoList {
	if lists == nil {
		return nil
	}
	out := make([]TodoList, len(lists))
	for i, l := range lists {
		out[i] = l.Clone()
	}
	return out
}
