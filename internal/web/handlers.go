package web

import (
	"net/http"
	"strings"

	"todolists/internal/stats"
	"todolists/internal/todo"
)

type signInRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type titleRequest struct {
	Title string `json:"title" validate:"required,max=100"`
}

type listSummary struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Done           bool   `json:"done"`
	TodosCount     int    `json:"todos_count"`
	TodosRemaining int    `json:"todos_remaining"`
}

type listDetail struct {
	ID        int64       `json:"id"`
	Title     string      `json:"title"`
	Done      bool        `json:"done"`
	HasUndone bool        `json:"has_undone"`
	Todos     []todo.Todo `json:"todos"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	// 健康检查
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleSignIn(w http.ResponseWriter, r *http.Request) {
	// 校验账号密码并登录
	var input signInRequest
	if err := a.decodeJSON(w, r, &input); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	if err := a.validate.Struct(input); err != nil {
		a.writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	ok, err := storeFrom(r.Context()).Authenticate(r.Context(), input.Username, input.Password)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if !ok {
		a.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sessionFrom(r.Context()).SignIn(input.Username)
	a.writeJSON(w, http.StatusOK, map[string]string{"username": input.Username})
}

func (a *App) handleSignOut(w http.ResponseWriter, r *http.Request) {
	// 退出登录
	sessionFrom(r.Context()).SignOut()
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleListTodoLists(w http.ResponseWriter, r *http.Request) {
	// 列表汇总，未完成的排在前面
	store := storeFrom(r.Context())
	lists, err := store.SortedTodoLists(r.Context())
	if err != nil {
		a.serverError(w, r, err)
		return
	}

	out := make([]listSummary, 0, len(lists))
	for i := range lists {
		l := &lists[i]
		remaining := 0
		for _, t := range l.Todos {
			if !t.Done {
				remaining++
			}
		}
		out = append(out, listSummary{
			ID:             l.ID,
			Title:          l.Title,
			Done:           store.IsDoneTodoList(l),
			TodosCount:     len(l.Todos),
			TodosRemaining: remaining,
		})
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"lists": out})
}

func (a *App) handleStats(w http.ResponseWriter, r *http.Request) {
	// 统计汇总
	lists, err := storeFrom(r.Context()).SortedTodoLists(r.Context())
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, stats.Summarize(lists))
}

func (a *App) handleCreateTodoList(w http.ResponseWriter, r *http.Request) {
	// 新建清单，标题需唯一
	title, ok := a.readTitle(w, r)
	if !ok {
		return
	}

	store := storeFrom(r.Context())
	exists, err := store.ExistsTodoListTitle(r.Context(), title)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if exists {
		a.writeError(w, http.StatusConflict, "the list title must be unique")
		return
	}

	created, err := store.CreateTodoList(r.Context(), title)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if !created {
		a.writeError(w, http.StatusConflict, "the list title must be unique")
		return
	}
	a.writeJSON(w, http.StatusCreated, map[string]string{"title": title})
}

func (a *App) handleGetTodoList(w http.ResponseWriter, r *http.Request) {
	// 清单详情及排序后的 todo
	listID, err := readIDParam(r, "listID")
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	store := storeFrom(r.Context())
	list, err := store.LoadTodoList(r.Context(), listID)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if list == nil {
		a.writeError(w, http.StatusNotFound, "todo list not found")
		return
	}

	todos, err := store.SortedTodos(r.Context(), list)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, listDetail{
		ID:        list.ID,
		Title:     list.Title,
		Done:      store.IsDoneTodoList(list),
		HasUndone: store.HasUndoneTodos(list),
		Todos:     todos,
	})
}

func (a *App) handleUpdateTodoList(w http.ResponseWriter, r *http.Request) {
	// 修改清单标题
	listID, err := readIDParam(r, "listID")
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	title, ok := a.readTitle(w, r)
	if !ok {
		return
	}

	store := storeFrom(r.Context())
	list, err := store.LoadTodoList(r.Context(), listID)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if list == nil {
		a.writeError(w, http.StatusNotFound, "todo list not found")
		return
	}

	if title != list.Title {
		exists, err := store.ExistsTodoListTitle(r.Context(), title)
		if err != nil {
			a.serverError(w, r, err)
			return
		}
		if exists {
			a.writeError(w, http.StatusConflict, "the list title must be unique")
			return
		}
	}

	updated, err := store.SetTodoListTitle(r.Context(), listID, title)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if !updated {
		a.writeError(w, http.StatusConflict, "the list title must be unique")
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"id": listID, "title": title})
}

func (a *App) handleDeleteTodoList(w http.ResponseWriter, r *http.Request) {
	// 删除清单
	listID, err := readIDParam(r, "listID")
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	a.respondBool(w, r, "todo list not found", func(store todo.Store) (bool, error) {
		return store.DeleteTodoList(r.Context(), listID)
	})
}

func (a *App) handleCompleteAll(w http.ResponseWriter, r *http.Request) {
	// 整个清单标记完成
	listID, err := readIDParam(r, "listID")
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	a.respondBool(w, r, "todo list not found or empty", func(store todo.Store) (bool, error) {
		return store.CompleteAllTodos(r.Context(), listID)
	})
}

func (a *App) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	// 新建 todo
	listID, err := readIDParam(r, "listID")
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	title, ok := a.readTitle(w, r)
	if !ok {
		return
	}

	created, err := storeFrom(r.Context()).CreateTodo(r.Context(), listID, title)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if !created {
		a.writeError(w, http.StatusNotFound, "todo list not found")
		return
	}
	a.writeJSON(w, http.StatusCreated, map[string]any{"todolist_id": listID, "title": title})
}

func (a *App) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	// 单条查询
	listID, todoID, err := readTodoParams(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := storeFrom(r.Context()).LoadTodo(r.Context(), listID, todoID)
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if t == nil {
		a.writeError(w, http.StatusNotFound, "todo not found")
		return
	}
	a.writeJSON(w, http.StatusOK, t)
}

func (a *App) handleToggleTodo(w http.ResponseWriter, r *http.Request) {
	// 切换完成状态
	listID, todoID, err := readTodoParams(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.respondBool(w, r, "todo not found", func(store todo.Store) (bool, error) {
		return store.ToggleDoneTodo(r.Context(), listID, todoID)
	})
}

func (a *App) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	// 删除 todo
	listID, todoID, err := readTodoParams(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.respondBool(w, r, "todo not found", func(store todo.Store) (bool, error) {
		return store.DeleteTodo(r.Context(), listID, todoID)
	})
}

// respondBool maps a store mutation onto 204, 404 or 500.
func (a *App) respondBool(w http.ResponseWriter, r *http.Request, notFound string, op func(todo.Store) (bool, error)) {
	ok, err := op(storeFrom(r.Context()))
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	if !ok {
		a.writeError(w, http.StatusNotFound, notFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) readTitle(w http.ResponseWriter, r *http.Request) (string, bool) {
	// 解析并校验标题
	var input titleRequest
	if err := a.decodeJSON(w, r, &input); err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	input.Title = strings.TrimSpace(input.Title)
	if err := a.validate.Struct(input); err != nil {
		a.writeError(w, http.StatusBadRequest, todo.ErrInvalidTitle.Error())
		return "", false
	}
	return input.Title, true
}
