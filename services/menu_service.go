package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ordering-svc/models"

	"github.com/lib/pq"
)

// MenuService is plain CRUD over menu items, options and choices.
// Stock mutations during an order flow never go through here; those
// belong to OrderService.
type MenuService struct {
	db *sql.DB
}

func NewMenuService(db *sql.DB) *MenuService {
	return &MenuService{db: db}
}

const menuItemColumns = "id, name, category, price, image_url, description, is_available, stock_quantity, prep_time, is_recommended, display_order, created_at, updated_at"
const menuOptionColumns = "id, name, description, option_type, is_required, min_selection, max_selection, display_order, created_at, updated_at"
const optionChoiceColumns = "id, menu_option_id, name, price_modifier, is_default, display_order, created_at, updated_at"

func (s *MenuService) GetMenuItems(ctx context.Context, category string, skip, limit int) ([]models.MenuItem, error) {
	query := "SELECT " + menuItemColumns + " FROM menu_items"
	args := []any{}
	if category != "" {
		query += " WHERE category = $1"
		args = append(args, category)
	}
	query += fmt.Sprintf(" ORDER BY display_order, id OFFSET $%d LIMIT $%d", len(args)+1, len(args)+2)
	args = append(args, skip, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		var it models.MenuItem
		if err := scanMenuItem(rows, &it); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		items[i].Options, err = s.itemOptions(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *MenuService) GetMenuItem(ctx context.Context, itemID int) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	row := s.db.QueryRowContext(ctx, "SELECT "+menuItemColumns+" FROM menu_items WHERE id = $1", itemID)
	if err := scanMenuItem(row, item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("Menu item not found")
		}
		return nil, err
	}

	var err error
	item.Options, err = s.itemOptions(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *MenuService) CreateMenuItem(ctx context.Context, req models.CreateMenuItemRequest) (*models.MenuItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}

	displayOrder := 0
	if req.DisplayOrder != nil {
		displayOrder = *req.DisplayOrder
	} else {
		// New items go to the end of their category.
		var maxOrder sql.NullInt64
		err := tx.QueryRowContext(ctx,
			"SELECT MAX(display_order) FROM menu_items WHERE category = $1", req.Category,
		).Scan(&maxOrder)
		if err != nil {
			return nil, fmt.Errorf("max display order: %w", err)
		}
		displayOrder = int(maxOrder.Int64) + 1
	}

	item := &models.MenuItem{}
	row := tx.QueryRowContext(ctx,
		"INSERT INTO menu_items (name, category, price, image_url, description, is_available, stock_quantity, prep_time, is_recommended, display_order) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING "+menuItemColumns,
		req.Name, req.Category, req.Price, req.ImageURL, req.Description, isAvailable, req.StockQuantity, req.PrepTime, req.IsRecommended, displayOrder)
	if err := scanMenuItem(row, item); err != nil {
		return nil, fmt.Errorf("insert menu item: %w", err)
	}

	if len(req.OptionIDs) > 0 {
		if err := attachOptions(ctx, tx, item.ID, req.OptionIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	item.Options, err = s.itemOptions(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *MenuService) UpdateMenuItem(ctx context.Context, itemID int, req models.UpdateMenuItemRequest) (*models.MenuItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	item := &models.MenuItem{}
	row := tx.QueryRowContext(ctx,
		`UPDATE menu_items SET
			name = COALESCE($1, name),
			category = COALESCE($2, category),
			price = COALESCE($3, price),
			image_url = COALESCE($4, image_url),
			description = COALESCE($5, description),
			is_available = COALESCE($6, is_available),
			stock_quantity = COALESCE($7, stock_quantity),
			prep_time = COALESCE($8, prep_time),
			is_recommended = COALESCE($9, is_recommended),
			display_order = COALESCE($10, display_order),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $11 RETURNING `+menuItemColumns,
		req.Name, req.Category, req.Price, req.ImageURL, req.Description, req.IsAvailable,
		req.StockQuantity, req.PrepTime, req.IsRecommended, req.DisplayOrder, itemID)
	if err := scanMenuItem(row, item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("Menu item not found")
		}
		return nil, fmt.Errorf("update menu item %d: %w", itemID, err)
	}

	if req.OptionIDs != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM menu_item_options WHERE menu_item_id = $1", itemID); err != nil {
			return nil, fmt.Errorf("detach options: %w", err)
		}
		if len(req.OptionIDs) > 0 {
			if err := attachOptions(ctx, tx, itemID, req.OptionIDs); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	item.Options, err = s.itemOptions(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *MenuService) DeleteMenuItem(ctx context.Context, itemID int) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM menu_items WHERE id = $1", itemID)
	if err != nil {
		return fmt.Errorf("delete menu item %d: %w", itemID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return NotFound("Menu item not found")
	}
	return nil
}

func (s *MenuService) GetCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT category FROM menu_items ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *MenuService) GetMenuOptions(ctx context.Context) ([]models.MenuOption, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+menuOptionColumns+" FROM menu_options ORDER BY display_order, id")
	if err != nil {
		return nil, fmt.Errorf("list menu options: %w", err)
	}
	defer rows.Close()

	options := []models.MenuOption{}
	for rows.Next() {
		var o models.MenuOption
		if err := scanMenuOption(rows, &o); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range options {
		options[i].Choices, err = s.optionChoices(ctx, options[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return options, nil
}

func (s *MenuService) GetMenuOption(ctx context.Context, optionID int) (*models.MenuOption, error) {
	option := &models.MenuOption{}
	row := s.db.QueryRowContext(ctx, "SELECT "+menuOptionColumns+" FROM menu_options WHERE id = $1", optionID)
	if err := scanMenuOption(row, option); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("Menu option not found")
		}
		return nil, err
	}

	var err error
	option.Choices, err = s.optionChoices(ctx, optionID)
	if err != nil {
		return nil, err
	}
	return option, nil
}

func (s *MenuService) CreateMenuOption(ctx context.Context, req models.CreateMenuOptionRequest) (*models.MenuOption, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	optionType := req.OptionType
	if optionType == "" {
		optionType = "single"
	}

	option := &models.MenuOption{}
	row := tx.QueryRowContext(ctx,
		"INSERT INTO menu_options (name, description, option_type, is_required, min_selection, max_selection, display_order) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING "+menuOptionColumns,
		req.Name, req.Description, optionType, req.IsRequired, req.MinSelection, req.MaxSelection, req.DisplayOrder)
	if err := scanMenuOption(row, option); err != nil {
		return nil, fmt.Errorf("insert menu option: %w", err)
	}

	for idx, choiceReq := range req.Choices {
		displayOrder := idx
		if choiceReq.DisplayOrder != nil {
			displayOrder = *choiceReq.DisplayOrder
		}
		var choice models.OptionChoice
		row := tx.QueryRowContext(ctx,
			"INSERT INTO option_choices (menu_option_id, name, price_modifier, is_default, display_order) VALUES ($1, $2, $3, $4, $5) RETURNING "+optionChoiceColumns,
			option.ID, choiceReq.Name, choiceReq.PriceModifier, choiceReq.IsDefault, displayOrder)
		if err := scanOptionChoice(row, &choice); err != nil {
			return nil, fmt.Errorf("insert option choice: %w", err)
		}
		option.Choices = append(option.Choices, choice)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return option, nil
}

func (s *MenuService) UpdateMenuOption(ctx context.Context, optionID int, req models.UpdateMenuOptionRequest) (*models.MenuOption, error) {
	option := &models.MenuOption{}
	row := s.db.QueryRowContext(ctx,
		`UPDATE menu_options SET
			name = COALESCE($1, name),
			description = COALESCE($2, description),
			option_type = COALESCE($3, option_type),
			is_required = COALESCE($4, is_required),
			min_selection = COALESCE($5, min_selection),
			max_selection = COALESCE($6, max_selection),
			display_order = COALESCE($7, display_order),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $8 RETURNING `+menuOptionColumns,
		req.Name, req.Description, req.OptionType, req.IsRequired, req.MinSelection, req.MaxSelection, req.DisplayOrder, optionID)
	if err := scanMenuOption(row, option); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("Menu option not found")
		}
		return nil, fmt.Errorf("update menu option %d: %w", optionID, err)
	}

	var err error
	option.Choices, err = s.optionChoices(ctx, optionID)
	if err != nil {
		return nil, err
	}
	return option, nil
}

func (s *MenuService) DeleteMenuOption(ctx context.Context, optionID int) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM menu_options WHERE id = $1", optionID)
	if err != nil {
		return fmt.Errorf("delete menu option %d: %w", optionID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return NotFound("Menu option not found")
	}
	return nil
}

func (s *MenuService) CreateOptionChoice(ctx context.Context, optionID int, req models.CreateOptionChoiceRequest) (*models.OptionChoice, error) {
	displayOrder := 0
	if req.DisplayOrder != nil {
		displayOrder = *req.DisplayOrder
	}

	choice := &models.OptionChoice{}
	row := s.db.QueryRowContext(ctx,
		"INSERT INTO option_choices (menu_option_id, name, price_modifier, is_default, display_order) VALUES ($1, $2, $3, $4, $5) RETURNING "+optionChoiceColumns,
		optionID, req.Name, req.PriceModifier, req.IsDefault, displayOrder)
	if err := scanOptionChoice(row, choice); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return nil, NotFound("Menu option not found")
		}
		return nil, fmt.Errorf("insert option choice: %w", err)
	}
	return choice, nil
}

func (s *MenuService) UpdateOptionChoice(ctx context.Context, choiceID int, req models.UpdateOptionChoiceRequest) (*models.OptionChoice, error) {
	choice := &models.OptionChoice{}
	row := s.db.QueryRowContext(ctx,
		`UPDATE option_choices SET
			name = COALESCE($1, name),
			price_modifier = COALESCE($2, price_modifier),
			is_default = COALESCE($3, is_default),
			display_order = COALESCE($4, display_order),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $5 RETURNING `+optionChoiceColumns,
		req.Name, req.PriceModifier, req.IsDefault, req.DisplayOrder, choiceID)
	if err := scanOptionChoice(row, choice); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("Option choice not found")
		}
		return nil, fmt.Errorf("update option choice %d: %w", choiceID, err)
	}
	return choice, nil
}

func (s *MenuService) DeleteOptionChoice(ctx context.Context, choiceID int) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM option_choices WHERE id = $1", choiceID)
	if err != nil {
		return fmt.Errorf("delete option choice %d: %w", choiceID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return NotFound("Option choice not found")
	}
	return nil
}

func (s *MenuService) ReorderOptionChoices(ctx context.Context, optionID int, orders []models.ChoiceOrder) ([]models.OptionChoice, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM menu_options WHERE id = $1", optionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("Menu option not found")
	}
	if err != nil {
		return nil, fmt.Errorf("check menu option %d: %w", optionID, err)
	}

	for _, co := range orders {
		_, err := tx.ExecContext(ctx,
			"UPDATE option_choices SET display_order = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND menu_option_id = $3",
			co.DisplayOrder, co.ID, optionID)
		if err != nil {
			return nil, fmt.Errorf("reorder choice %d: %w", co.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.optionChoices(ctx, optionID)
}

func (s *MenuService) itemOptions(ctx context.Context, itemID int) ([]models.MenuOption, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT o.id, o.name, o.description, o.option_type, o.is_required, o.min_selection, o.max_selection, o.display_order, o.created_at, o.updated_at FROM menu_options o JOIN menu_item_options mio ON mio.menu_option_id = o.id WHERE mio.menu_item_id = $1 ORDER BY o.display_order, o.id",
		itemID)
	if err != nil {
		return nil, fmt.Errorf("list item options: %w", err)
	}
	defer rows.Close()

	options := []models.MenuOption{}
	for rows.Next() {
		var o models.MenuOption
		if err := scanMenuOption(rows, &o); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range options {
		options[i].Choices, err = s.optionChoices(ctx, options[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return options, nil
}

func (s *MenuService) optionChoices(ctx context.Context, optionID int) ([]models.OptionChoice, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+optionChoiceColumns+" FROM option_choices WHERE menu_option_id = $1 ORDER BY display_order, id",
		optionID)
	if err != nil {
		return nil, fmt.Errorf("list option choices: %w", err)
	}
	defer rows.Close()

	choices := []models.OptionChoice{}
	for rows.Next() {
		var c models.OptionChoice
		if err := scanOptionChoice(rows, &c); err != nil {
			return nil, err
		}
		choices = append(choices, c)
	}
	return choices, rows.Err()
}

func attachOptions(ctx context.Context, tx *sql.Tx, itemID int, optionIDs []int) error {
	for _, optionID := range optionIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO menu_item_options (menu_item_id, menu_option_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			itemID, optionID)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23503" {
				return Validation("Menu option %d not found", optionID)
			}
			return fmt.Errorf("attach option %d: %w", optionID, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMenuItem(row rowScanner, it *models.MenuItem) error {
	return row.Scan(&it.ID, &it.Name, &it.Category, &it.Price, &it.ImageURL, &it.Description,
		&it.IsAvailable, &it.StockQuantity, &it.PrepTime, &it.IsRecommended, &it.DisplayOrder,
		&it.CreatedAt, &it.UpdatedAt)
}

func scanMenuOption(row rowScanner, o *models.MenuOption) error {
	return row.Scan(&o.ID, &o.Name, &o.Description, &o.OptionType, &o.IsRequired,
		&o.MinSelection, &o.MaxSelection, &o.DisplayOrder, &o.CreatedAt, &o.UpdatedAt)
}

func scanOptionChoice(row rowScanner, c *models.OptionChoice) error {
	return row.Scan(&c.ID, &c.MenuOptionID, &c.Name, &c.PriceModifier, &c.IsDefault,
		&c.DisplayOrder, &c.CreatedAt, &c.UpdatedAt)
}
