package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/duskhall/delve/internal/character"
	"github.com/duskhall/delve/internal/class"
	"github.com/duskhall/delve/internal/loot"
)

// ErrCharacterNotFound is returned when a character lookup fails.
var ErrCharacterNotFound = errors.New("character not found")

// CharacterByIdentity loads the character row for a token identity.
func (s *Store) CharacterByIdentity(ctx context.Context, id character.Identity) (*character.Character, error) {
	query := s.qb.Build(`SELECT wallet, name, class, level, experience,
		health, max_health, mana, max_mana,
		strength, dexterity, constitution, intelligence, wisdom, charisma,
		perception_proficient, disarm_proficient
		FROM characters WHERE chain = ? AND contract = ? AND token_id = ?`)

	ch := &character.Character{Identity: id}
	var className string
	err := s.db.QueryRowContext(ctx, query, id.Chain, id.Contract, id.TokenID).Scan(
		&ch.Wallet, &ch.Name, &className, &ch.Level, &ch.Experience,
		&ch.Stats.Health, &ch.Stats.MaxHealth, &ch.Stats.Mana, &ch.Stats.MaxMana,
		&ch.Stats.Abilities.Strength, &ch.Stats.Abilities.Dexterity,
		&ch.Stats.Abilities.Constitution, &ch.Stats.Abilities.Intelligence,
		&ch.Stats.Abilities.Wisdom, &ch.Stats.Abilities.Charisma,
		&ch.Stats.PerceptionProficient, &ch.Stats.DisarmProficient,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCharacterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load character %s: %w", id.Key(), err)
	}

	ch.Class, err = class.ParseClass(className)
	if err != nil {
		return nil, fmt.Errorf("character %s has invalid class: %w", id.Key(), err)
	}
	ch.RecalcDerived()
	return ch, nil
}

// SaveCharacter inserts or fully replaces the character row for the
// character's identity.
func (s *Store) SaveCharacter(ctx context.Context, ch *character.Character) error {
	query := s.qb.Build(`INSERT INTO characters (
		chain, contract, token_id, wallet, name, class, level, experience,
		health, max_health, mana, max_mana,
		strength, dexterity, constitution, intelligence, wisdom, charisma,
		perception_proficient, disarm_proficient, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (chain, contract, token_id) DO UPDATE SET
		wallet = excluded.wallet,
		name = excluded.name,
		class = excluded.class,
		level = excluded.level,
		experience = excluded.experience,
		health = excluded.health,
		max_health = excluded.max_health,
		mana = excluded.mana,
		max_mana = excluded.max_mana,
		strength = excluded.strength,
		dexterity = excluded.dexterity,
		constitution = excluded.constitution,
		intelligence = excluded.intelligence,
		wisdom = excluded.wisdom,
		charisma = excluded.charisma,
		perception_proficient = excluded.perception_proficient,
		disarm_proficient = excluded.disarm_proficient,
		updated_at = excluded.updated_at`)

	_, err := s.db.ExecContext(ctx, query,
		ch.Identity.Chain, ch.Identity.Contract, ch.Identity.TokenID,
		ch.Wallet, ch.Name, string(ch.Class), ch.Level, ch.Experience,
		ch.Stats.Health, ch.Stats.MaxHealth, ch.Stats.Mana, ch.Stats.MaxMana,
		ch.Stats.Abilities.Strength, ch.Stats.Abilities.Dexterity,
		ch.Stats.Abilities.Constitution, ch.Stats.Abilities.Intelligence,
		ch.Stats.Abilities.Wisdom, ch.Stats.Abilities.Charisma,
		ch.Stats.PerceptionProficient, ch.Stats.DisarmProficient,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save character %s: %w", ch.Identity.Key(), err)
	}
	return nil
}

// UpdateCharacterStats writes back the mutable post-run state of an
// existing character: health, mana, level, experience, and max values
// raised by level-ups.
func (s *Store) UpdateCharacterStats(ctx context.Context, ch *character.Character) error {
	query := s.qb.Build(`UPDATE characters SET
		level = ?, experience = ?,
		health = ?, max_health = ?, mana = ?, max_mana = ?,
		updated_at = ?
		WHERE chain = ? AND contract = ? AND token_id = ?`)

	res, err := s.db.ExecContext(ctx, query,
		ch.Level, ch.Experience,
		ch.Stats.Health, ch.Stats.MaxHealth, ch.Stats.Mana, ch.Stats.MaxMana,
		time.Now().UTC(),
		ch.Identity.Chain, ch.Identity.Contract, ch.Identity.TokenID,
	)
	if err != nil {
		return fmt.Errorf("failed to update character %s: %w", ch.Identity.Key(), err)
	}
	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// AddInventory credits loot items to a character identity. A run
// credits each item id to an identity at most once, so replaying a
// redelivered job never double-credits.
func (s *Store) AddInventory(ctx context.Context, id character.Identity, runID string, items []loot.Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin inventory transaction: %w", err)
	}
	defer tx.Rollback()

	query := s.qb.Build(`INSERT INTO inventory
		(chain, contract, token_id, item_id, name, tier, value, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, chain, contract, token_id, item_id) DO NOTHING`)

	for _, item := range items {
		if _, err := tx.ExecContext(ctx, query,
			id.Chain, id.Contract, id.TokenID,
			item.ID, item.Name, item.Tier, item.Value, runID,
		); err != nil {
			return fmt.Errorf("failed to insert inventory item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inventory: %w", err)
	}
	return nil
}

// InventoryForIdentity returns all loot credited to a character.
func (s *Store) InventoryForIdentity(ctx context.Context, id character.Identity) ([]loot.Item, error) {
	query := s.qb.Build(`SELECT item_id, name, tier, value FROM inventory
		WHERE chain = ? AND contract = ? AND token_id = ?
		ORDER BY id`)

	rows, err := s.db.QueryContext(ctx, query, id.Chain, id.Contract, id.TokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var items []loot.Item
	for rows.Next() {
		var item loot.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Tier, &item.Value); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
