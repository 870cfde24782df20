// Package memstore implementa en memoria todos los puertos de repositorio y los TxRunner
// de la aplicación. Cada transacción trabaja sobre el estado vivo y, si fn devuelve error,
// se restaura la copia tomada al empezar: mismo contrato todo o nada que PostgreSQL.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/domain/repository"
)

// Store base de datos en memoria.
type Store struct {
	txMu sync.Mutex // serializa transacciones
	mu   sync.Mutex
	st   state
	now  time.Time

	failOn     map[string]error
	failCommit error
}

type state struct {
	categories map[int64]entity.Category
	products   map[int64]entity.Product
	movements  map[int64]entity.StockMovement
	users      map[int64]entity.User
	seq        map[string]int64
}

// New crea un store vacío con reloj determinista.
func New() *Store {
	return &Store{
		st: state{
			categories: map[int64]entity.Category{},
			products:   map[int64]entity.Product{},
			movements:  map[int64]entity.StockMovement{},
			users:      map[int64]entity.User{},
			seq:        map[string]int64{},
		},
		now:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		failOn: map[string]error{},
	}
}

// FailOn hace que la operación op ("Products.UpdateStock", "Movements.Create", ...) devuelva err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[op] = err
}

// FailCommit simula un fallo al confirmar las siguientes transacciones.
func (s *Store) FailCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommit = err
}

func (s *Store) fail(op string) error {
	return s.failOn[op]
}

// tick avanza el reloj un segundo; las fechas asignadas son estrictamente crecientes.
func (s *Store) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *Store) nextID(table string) int64 {
	s.st.seq[table]++
	return s.st.seq[table]
}

func (s *Store) bumpSeq(table string, id int64) {
	if id > s.st.seq[table] {
		s.st.seq[table] = id
	}
}

func (st state) clone() state {
	c := state{
		categories: make(map[int64]entity.Category, len(st.categories)),
		products:   make(map[int64]entity.Product, len(st.products)),
		movements:  make(map[int64]entity.StockMovement, len(st.movements)),
		users:      make(map[int64]entity.User, len(st.users)),
		seq:        make(map[string]int64, len(st.seq)),
	}
	for k, v := range st.categories {
		c.categories[k] = v
	}
	for k, v := range st.products {
		c.products[k] = v
	}
	for k, v := range st.movements {
		c.movements[k] = v
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.seq {
		c.seq[k] = v
	}
	return c
}

// Products repositorio de productos fuera de transacción.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Categories repositorio de categorías fuera de transacción.
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{s: s} }

// Movements repositorio del ledger fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Backup repositorio de backup fuera de transacción.
func (s *Store) Backup() *BackupRepo { return &BackupRepo{s: s} }

func (s *Store) inTx(fn func() error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	saved := s.st.clone()
	s.mu.Unlock()

	rollback := func() {
		s.mu.Lock()
		s.st = saved
		s.mu.Unlock()
	}
	if err := fn(); err != nil {
		rollback()
		return err
	}
	s.mu.Lock()
	commitErr := s.failCommit
	s.mu.Unlock()
	if commitErr != nil {
		rollback()
		return &domain.TransactionError{Op: "commit", Err: commitErr}
	}
	return nil
}

// Run implementa inventory.TxRunner.
func (s *Store) Run(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	return s.inTx(func() error { return fn(s.Movements(), s.Products()) })
}

// RunCatalog implementa catalog.TxRunner.
func (s *Store) RunCatalog(_ context.Context, fn func(
	catRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	return s.inTx(func() error { return fn(s.Categories(), s.Products(), s.Movements()) })
}

// RunBackup implementa backup.TxRunner (escritura).
func (s *Store) RunBackup(_ context.Context, fn func(backupRepo repository.BackupRepository) error) error {
	return s.inTx(func() error { return fn(s.Backup()) })
}

// RunSnapshot implementa backup.TxRunner (lectura).
func (s *Store) RunSnapshot(_ context.Context, fn func(backupRepo repository.BackupRepository) error) error {
	return s.inTx(func() error { return fn(s.Backup()) })
}

// SeedCategory inserta una categoría y devuelve su ID.
func (s *Store) SeedCategory(name, description string) int64 {
	c := &entity.Category{Name: name, Description: description}
	if err := s.Categories().Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c.ID
}

// SeedProduct inserta un producto con el stock indicado (creando la categoría si falta).
func (s *Store) SeedProduct(p entity.Product) int64 {
	ctx := context.Background()
	if ok, _ := s.Categories().ExistsByName(ctx, p.Category); !ok {
		s.SeedCategory(p.Category, "")
	}
	if err := s.Products().Create(ctx, &p); err != nil {
		panic(err)
	}
	return p.ID
}

// Stock devuelve el stock actual de un producto (-1 si no existe).
func (s *Store) Stock(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[productID]
	if !ok {
		return -1
	}
	return p.Stock
}

// MovementCount número de filas del ledger.
func (s *Store) MovementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.movements)
}

func sortedMovements(m map[int64]entity.StockMovement, keep func(entity.StockMovement) bool) []*entity.StockMovement {
	out := make([]*entity.StockMovement, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			v := v
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
