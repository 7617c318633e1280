package commands

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookadmin-dev/bookadmin/internal/cli/client"
	"github.com/bookadmin-dev/bookadmin/internal/session"
)

var testUsers = []client.User{
	{ID: 1, DisplayName: "Alice Admin", Email: "alice@example.com", Roles: []string{"ADMIN"}, CreatedAt: "2024-01-02"},
	{ID: 2, DisplayName: "Bob Reader", Email: "bob@example.com", Roles: []string{"USER"}},
}

func TestCommands_RequireSession(t *testing.T) {
	tests := []struct {
		name string
		run  func(env *testEnv) error
	}{
		{"users list", func(env *testEnv) error { return execute(NewUsersCmd(env.options()...), "ls") }},
		{"users get", func(env *testEnv) error { return execute(NewUsersCmd(env.options()...), "get", "1") }},
		{"books list", func(env *testEnv) error { return execute(NewBooksCmd(env.options()...), "ls") }},
		{"tags list", func(env *testEnv) error { return execute(NewTagsCmd(env.options()...), "ls") }},
		{"comments delete", func(env *testEnv) error { return execute(NewCommentsCmd(env.options()...), "delete", "3") }},
		{"stats", func(env *testEnv) error { return execute(NewStatsCmd(env.options()...)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			err := tt.run(env)

			require.ErrorIs(t, err, session.ErrNotAuthenticated)
			assert.Equal(t, 0, env.requestCount())
		})
	}
}

func TestUsersList_Table(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.handle("GET /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ADMIN", r.URL.Query().Get("role"))
		assert.Equal(t, "50", r.URL.Query().Get("size"))
		writeJSON(t, w, http.StatusOK, client.UserPage{
			Content:       testUsers[:1],
			TotalElements: 1,
			TotalPages:    1,
			Size:          50,
		})
	})

	require.NoError(t, execute(NewUsersCmd(env.options()...), "ls", "--role", "ADMIN", "--size", "50"))

	out := env.out.String()
	assert.Contains(t, out, "EMAIL")
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "Page 1 of 1 (1 users)")
}

func TestUsersList_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.handle("GET /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, client.UserPage{Content: testUsers, TotalElements: 2, TotalPages: 1})
	})

	require.NoError(t, execute(NewUsersCmd(env.options()...), "ls", "-o", "json"))

	var page client.UserPage
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &page))
	assert.Len(t, page.Content, 2)
	assert.Equal(t, "bob@example.com", page.Content[1].Email)
}

func TestUsersList_YAML(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.handle("GET /api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, client.UserPage{Content: testUsers[1:], TotalElements: 1, TotalPages: 1})
	})

	require.NoError(t, execute(NewUsersCmd(env.options()...), "ls", "-o", "yaml"))

	assert.Contains(t, env.out.String(), "email: bob@example.com")
	assert.NotContains(t, env.out.String(), "Page 1")
}

func TestUsersList_InvalidOutputFormat(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")

	err := execute(NewUsersCmd(env.options()...), "ls", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown output format "xml"`)
	assert.Equal(t, 0, env.requestCount())
}

func TestUsersGet_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.handle("GET /api/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "User not found"})
	})

	err := execute(NewUsersCmd(env.options()...), "get", "99")
	require.EqualError(t, err, "user 99 not found")
}

func TestUsersGet_InvalidID(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")

	err := execute(NewUsersCmd(env.options()...), "get", "abc")
	require.EqualError(t, err, `invalid ID "abc"`)
}

func TestUsersComments(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.handle("GET /api/admin/users/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.PathValue("id"))
		writeJSON(t, w, http.StatusOK, []client.Comment{
			{ID: 10, UserID: 2, BookID: 4, BookName: "Dune", Content: "A classic"},
		})
	})

	require.NoError(t, execute(NewUsersCmd(env.options()...), "comments", "2"))
	assert.Contains(t, env.out.String(), "Dune")
	assert.Contains(t, env.out.String(), "A classic")
}

func TestCommentsDelete(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	deleted := ""
	env.handle("DELETE /api/admin/comments/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = r.PathValue("id")
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, execute(NewCommentsCmd(env.options()...), "delete", "10"))
	assert.Equal(t, "10", deleted)
	assert.Contains(t, env.out.String(), "Comment 10 deleted")
}

func TestUsersUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.handle("PUT /api/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.PathValue("id"))
		var body map[string]interface{}
		decodeJSON(t, r, &body)
		assert.Equal(t, map[string]interface{}{"displayName": "Bob B.", "roles": []interface{}{"USER", "ADMIN"}}, body)
		writeJSON(t, w, http.StatusOK, client.User{ID: 2, DisplayName: "Bob B.", Email: "bob@example.com", Roles: []string{"USER", "ADMIN"}})
	})

	require.NoError(t, execute(NewUsersCmd(env.options()...), "update", "2", "--name", "Bob B.", "--role", "user", "--role", "admin"))
	assert.Contains(t, env.out.String(), "User 2 updated")
	assert.Contains(t, env.out.String(), "USER,ADMIN")

	// Another account was edited, the stored record is untouched
	raw, _, err := env.store.Get(session.UserKey)
	require.NoError(t, err)
	assert.Contains(t, raw, "Alice Admin")
}

func TestUsersUpdate_OwnAccount(t *testing.T) {
	t.Run("refreshes the stored record", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedSession("ADMIN")
		env.handle("PUT /api/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, client.User{ID: 1, DisplayName: "Alice B.", Email: "alice@example.com", Roles: []string{"ADMIN"}})
		})

		require.NoError(t, execute(NewUsersCmd(env.options()...), "update", "1", "--name", "Alice B."))

		raw, ok, err := env.store.Get(session.UserKey)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Contains(t, raw, "Alice B.")
	})

	t.Run("dropping the admin role logs out", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedSession("ADMIN")
		env.handle("PUT /api/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, client.User{ID: 1, DisplayName: "Alice Admin", Email: "alice@example.com", Roles: []string{"USER"}})
		})

		require.NoError(t, execute(NewUsersCmd(env.options()...), "update", "1", "--role", "USER"))
		assert.Contains(t, env.out.String(), "you have been logged out")
		assert.Equal(t, 0, env.store.Len())
	})
}

func TestUsersUpdate_NothingToUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")

	err := execute(NewUsersCmd(env.options()...), "update", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
	assert.Equal(t, 0, env.requestCount())
}

func TestUsersDelete(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.handle("DELETE /api/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "2" {
			writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "User not found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, execute(NewUsersCmd(env.options()...), "delete", "2"))
	assert.Contains(t, env.out.String(), "User 2 deleted")

	err := execute(NewUsersCmd(env.options()...), "delete", "9")
	require.Error(t, err)
	assert.Equal(t, "user 9 not found", err.Error())
}

func TestBooksDelete(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	deleted := ""
	env.handle("DELETE /api/admin/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = r.PathValue("id")
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, execute(NewBooksCmd(env.options()...), "delete", "4"))
	assert.Equal(t, "4", deleted)
	assert.Contains(t, env.out.String(), "Book 4 deleted")
}

func TestSessionExpiredClearsStore(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.token = "rotated-on-the-server"

	err := execute(NewTagsCmd(env.options()...), "ls")

	require.True(t, session.IsSessionExpired(err))
	assert.Equal(t, 0, env.store.Len())
	assert.Equal(t, 1, env.requestCount())
}

func TestBooksList_Filter(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	note := 8.5
	env.handle("POST /api/admin/books", func(w http.ResponseWriter, r *http.Request) {
		var filter client.BookFilter
		decodeJSON(t, r, &filter)
		assert.Equal(t, []string{"fantasy", "classic"}, filter.Tags)
		require.NotNil(t, filter.IsCompleted)
		assert.False(t, *filter.IsCompleted)
		assert.Nil(t, filter.MinRating)

		writeJSON(t, w, http.StatusOK, client.BookPage{
			Content: []client.Book{{
				ID:       1,
				Name:     "Dune",
				NbVolume: 6,
				Note:     &note,
				Tags:     []client.Tag{{ID: 1, Name: "fantasy"}},
				Authors:  []client.Author{{ID: 1, Name: "Frank Herbert"}},
			}},
			TotalElements: 1,
			TotalPages:    1,
		})
	})

	require.NoError(t, execute(NewBooksCmd(env.options()...), "ls", "--tag", "fantasy,classic", "--completed=false"))

	out := env.out.String()
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "8.5")
	assert.Contains(t, out, "Frank Herbert")
}

func TestBooksList_AllEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.handle("POST /api/admin/books", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1000", r.URL.Query().Get("size"))
		writeJSON(t, w, http.StatusOK, client.BookPage{})
	})

	require.NoError(t, execute(NewBooksCmd(env.options()...), "ls", "--all"))
	assert.Contains(t, env.out.String(), "No books found.")
}

func TestBooksUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.handle("PUT /api/admin/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		decodeJSON(t, r, &body)
		assert.Equal(t, map[string]interface{}{"name": "Dune Messiah", "nbVolume": float64(1)}, body)
		writeJSON(t, w, http.StatusOK, client.Book{ID: 2, Name: "Dune Messiah", NbVolume: 1})
	})

	require.NoError(t, execute(NewBooksCmd(env.options()...), "update", "2", "--name", "Dune Messiah", "--volumes", "1", "-o", "json"))

	var book client.Book
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &book))
	assert.Equal(t, "Dune Messiah", book.Name)
}

func TestBooksUpdate_NothingToUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")

	err := execute(NewBooksCmd(env.options()...), "update", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
	assert.Equal(t, 0, env.requestCount())
}

func TestBooksSearch(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.handle("GET /api/admin/books/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "petit prince", r.URL.Query().Get("q"))
		writeJSON(t, w, http.StatusOK, []client.Book{})
	})

	require.NoError(t, execute(NewBooksCmd(env.options()...), "search", "petit", "prince"))
	assert.Contains(t, env.out.String(), `No books match "petit prince".`)
}

func TestTagsLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.handle("POST /api/admin/tags", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		decodeJSON(t, r, &body)
		writeJSON(t, w, http.StatusCreated, client.Tag{ID: 7, Name: body["name"]})
	})
	env.handle("PUT /api/admin/tags/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		decodeJSON(t, r, &body)
		writeJSON(t, w, http.StatusOK, client.Tag{ID: 7, Name: body["name"]})
	})
	env.handle("DELETE /api/admin/tags/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "7" {
			writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "Tag not found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, execute(NewTagsCmd(env.options()...), "create", "science", "fiction"))
	assert.Contains(t, env.out.String(), `Tag "science fiction" created (ID 7)`)

	require.NoError(t, execute(NewTagsCmd(env.options()...), "update", "7", "sci-fi"))
	assert.Contains(t, env.out.String(), `Tag 7 renamed to "sci-fi"`)

	require.NoError(t, execute(NewTagsCmd(env.options()...), "delete", "7"))
	assert.Contains(t, env.out.String(), "Tag 7 deleted")

	err := execute(NewTagsCmd(env.options()...), "delete", "8")
	require.EqualError(t, err, "tag 8 not found")
}

func TestStats_Table(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession("ADMIN")
	env.handle("GET /api/admin/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, client.AdminStats{
			TotalUsers:       12,
			DAU:              3,
			TotalBooks:       40,
			TopTagsByReaders: []client.EntityCount{{Name: "fantasy", Count: 8}},
			TrendingBooks:    []client.BookTrend{{ID: 1, Name: "Dune", Delta: 25}},
		})
	})

	require.NoError(t, execute(NewStatsCmd(env.options()...)))

	out := env.out.String()
	assert.Contains(t, out, "METRIC")
	assert.Contains(t, out, "fantasy (8)")
	assert.Contains(t, out, "Dune (+25%)")
}
