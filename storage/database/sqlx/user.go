package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/medtrackhq/medtrack/core"
	"github.com/medtrackhq/medtrack/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         null.String    `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	IsActive     null.Bool      `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash null.Bytes     `db:"password_hash"`
	CreatedAt    null.Time      `db:"created_at"`
	UpdatedAt    null.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (r userRow) unpack() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name.String,
		Username:     r.Username.String,
		Email:        r.Email.String,
		IsActive:     r.IsActive.Ptr(),
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
		LastLogin:    r.LastLogin.Time,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	excluded := make([]string, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded = append(excluded, u.ID)
	}
	// a placeholder that matches no row keeps the NOT IN clause valid when nothing is excluded
	if len(excluded) == 0 {
		excluded = append(excluded, uuid.Nil.String())
	}

	check := func(column, value string, sentinel error) error {
		if value == "" {
			return nil
		}
		q, args, err := sqlx.In(
			`SELECT EXISTS (SELECT 1 FROM "user" WHERE LOWER(`+column+`) = LOWER(?) AND id NOT IN (?))`,
			value, excluded,
		)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		var exists bool
		if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(q), args...); err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
		if exists {
			return sentinel
		}
		return nil
	}

	if err := check("username", username, user.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, user.ErrEmailExists)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, repo.db.Rebind(
		`INSERT INTO "user" (id, name, username, email, is_active, roles, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		usr.ID, usr.Name, usr.Username, usr.Email, usr.IsActive, pq.StringArray(usr.Roles),
		usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var conds []string
	var args []interface{}

	if filter.ID != "" {
		conds, args = append(conds, "id = ?"), append(args, filter.ID)
	}
	if filter.Username != "" {
		conds, args = append(conds, "LOWER(username) = LOWER(?)"), append(args, filter.Username)
	}
	if filter.Email != "" {
		conds, args = append(conds, "LOWER(email) = LOWER(?)"), append(args, filter.Email)
	}
	if len(filter.UsernameOrEmail) == 2 {
		conds = append(conds, "(LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?))")
		args = append(args, filter.UsernameOrEmail[0], filter.UsernameOrEmail[1])
	}
	if len(conds) == 0 {
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	q := `SELECT * FROM "user"` + where(conds) + ` LIMIT 1`
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(q), args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return row.unpack(), nil
}

var userOrderings = map[string]bool{
	"name": true, "username": true, "email": true,
	"created_at": true, "updated_at": true, "last_login": true,
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var conds []string
	var args []interface{}

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			conds = append(conds, "(name ILIKE ? OR username ILIKE ? OR email ILIKE ?)")
			val := "%" + filter.Search + "%"
			args = append(args, val, val, val)
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			roleConds := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				roleConds = append(roleConds, "EXISTS (SELECT 1 FROM UNNEST(roles) user_role WHERE user_role ILIKE ?)")
				args = append(args, role+"%")
			}
			conds = append(conds, "("+joinOr(roleConds)+")")
		}
		if filter.IsActive != nil {
			conds, args = append(conds, "is_active = ?"), append(args, *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			conds, args = append(conds, "created_at >= ?"), append(args, filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			conds, args = append(conds, "created_at <= ?"), append(args, filter.CreatedTo.UTC())
		}
	}

	q := `SELECT * FROM "user"` + where(conds) + orderBy(ordering, userOrderings, "created_at DESC")
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.unpack())
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	var sets []string
	var args []interface{}

	set := func(expr string, val interface{}) {
		sets, args = append(sets, expr), append(args, val)
	}
	if usr.Name != "" {
		set("name = ?", usr.Name)
	}
	if usr.Username != "" {
		set("username = ?", usr.Username)
	}
	if usr.Email != "" {
		set("email = ?", usr.Email)
	}
	if usr.Roles != nil {
		set("roles = ?", pq.StringArray(usr.Roles))
	}
	if usr.PasswordHash != nil {
		set("password_hash = ?", usr.PasswordHash)
	}
	if isActive != nil {
		set("is_active = ?", *isActive)
	}
	if !usr.UpdatedAt.IsZero() {
		set("updated_at = ?", usr.UpdatedAt)
	}
	if !usr.LastLogin.IsZero() {
		set("last_login = ?", usr.LastLogin)
	}
	if len(sets) == 0 {
		return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	}

	args = append(args, usr.ID)
	q := `UPDATE "user" SET ` + joinComma(sets) + ` WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		existing, err := repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{usr.Username, usr.Email}})
		if err != nil {
			if errors.Cause(err) != user.ErrNotFound {
				return user.User{}, err
			}
			return repo.CreateUser(ctx, usr)
		}
		usr.ID = existing.ID
	}
	return repo.UpdateUser(ctx, usr, usr.IsActive)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
