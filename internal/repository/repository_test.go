package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/SonetShaji6/LifeSync/internal/config"
	"github.com/SonetShaji6/LifeSync/internal/database"
	"github.com/SonetShaji6/LifeSync/internal/domain/model"
	"github.com/SonetShaji6/LifeSync/internal/storage/vpath"

	"github.com/jackc/pgx/v5/pgxpool"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
// Возвращает pgxpool.Pool; очистка через t.Cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("lifesync_test"),
		postgres.WithUsername("lifesync"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	// Настраиваем env для config.Load()
	os.Setenv("LS_DB_HOST", host)
	os.Setenv("LS_DB_PORT", port.Port())
	os.Setenv("LS_DB_NAME", "lifesync_test")
	os.Setenv("LS_DB_USER", "lifesync")
	os.Setenv("LS_DB_PASSWORD", "test-password")
	os.Setenv("LS_DB_SSLMODE", "disable")
	os.Setenv("LS_DATA_DIR", t.TempDir())
	os.Setenv("LS_JWT_SECRET", "test-secret-0123456789")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Применяем миграции
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	// Подключаемся
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

// createTestUser создаёт пользователя для тестов.
func createTestUser(t *testing.T, pool *pgxpool.Pool, email string) *model.User {
	t.Helper()
	u := &model.User{Name: "Тестовый пользователь", Email: email, PasswordHash: "hash"}
	if err := NewUserRepository(pool).Create(context.Background(), u); err != nil {
		t.Fatalf("Не удалось создать пользователя: %v", err)
	}
	return u
}

// --- Тесты UserRepository ---

func TestUserRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	u := &model.User{Name: "Анна", Email: "anna@example.com", PasswordHash: "bcrypt-hash"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if u.ID == "" {
		t.Error("ID не установлен")
	}
	if u.CreatedAt.IsZero() {
		t.Error("CreatedAt не установлен")
	}

	// Дубликат email
	dup := &model.User{Name: "Анна 2", Email: "anna@example.com", PasswordHash: "x"}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("ожидалась ошибка ErrConflict для дубликата email, получено: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "anna@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() ошибка: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetByEmail вернул другого пользователя: %s", got.ID)
	}

	byID, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if byID.Email != u.Email {
		t.Errorf("GetByID вернул другой email: %s", byID.Email)
	}

	if _, err := repo.GetByEmail(ctx, "нет@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ошибка ErrNotFound, получено: %v", err)
	}
}

// --- Тесты PinRepository ---

func TestPinRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, pool, "pin@example.com")
	repo := NewPinRepository(pool)

	if _, err := repo.GetHash(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ошибка ErrNotFound до установки PIN, получено: %v", err)
	}

	if err := repo.Upsert(ctx, u.ID, "hash-1"); err != nil {
		t.Fatalf("Upsert() ошибка: %v", err)
	}
	hash, err := repo.GetHash(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetHash() ошибка: %v", err)
	}
	if hash != "hash-1" {
		t.Errorf("неверный хэш: %q", hash)
	}

	// Замена PIN
	if err := repo.Upsert(ctx, u.ID, "hash-2"); err != nil {
		t.Fatalf("повторный Upsert() ошибка: %v", err)
	}
	hash, _ = repo.GetHash(ctx, u.ID)
	if hash != "hash-2" {
		t.Errorf("хэш не заменён: %q", hash)
	}
}

// --- Тесты FamilyRepository ---

func TestFamilyRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	admin := createTestUser(t, pool, "admin@example.com")
	member := createTestUser(t, pool, "member@example.com")
	repo := NewFamilyRepository(pool)

	f := &model.Family{Name: "Ивановы", AdminID: admin.ID}
	if err := repo.Create(ctx, f); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	// Дубликат названия
	dup := &model.Family{Name: "Ивановы", AdminID: member.ID}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("ожидалась ошибка ErrConflict для дубликата названия, получено: %v", err)
	}

	if err := repo.AddMember(ctx, f.ID, admin.ID); err != nil {
		t.Fatalf("AddMember(admin) ошибка: %v", err)
	}

	// Поиск по подстроке, без учёта регистра; своя семья исключается
	found, err := repo.Search(ctx, "иван", member.ID, 10)
	if err != nil {
		t.Fatalf("Search() ошибка: %v", err)
	}
	if len(found) != 1 || found[0].ID != f.ID {
		t.Fatalf("неверный результат поиска: %+v", found)
	}
	if own, err := repo.Search(ctx, "иван", admin.ID, 10); err != nil || len(own) != 0 {
		t.Errorf("своя семья должна исключаться из поиска: %+v, %v", own, err)
	}

	// Заявка на вступление
	req, err := repo.CreateJoinRequest(ctx, f.ID, member.ID)
	if err != nil {
		t.Fatalf("CreateJoinRequest() ошибка: %v", err)
	}
	if req.Status != model.JoinRequestPending {
		t.Errorf("статус новой заявки: %q", req.Status)
	}

	// Повторная заявка — конфликт
	if _, err := repo.CreateJoinRequest(ctx, f.ID, member.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("ожидалась ошибка ErrConflict для повторной заявки, получено: %v", err)
	}

	byUser, err := repo.GetPendingRequestByUser(ctx, f.ID, member.ID)
	if err != nil {
		t.Fatalf("GetPendingRequestByUser() ошибка: %v", err)
	}
	if byUser.ID != req.ID {
		t.Errorf("GetPendingRequestByUser вернул другую заявку: %s", byUser.ID)
	}

	pending, err := repo.ListPendingRequests(ctx, f.ID)
	if err != nil {
		t.Fatalf("ListPendingRequests() ошибка: %v", err)
	}
	if len(pending) != 1 || pending[0].UserEmail != "member@example.com" {
		t.Fatalf("неверный список заявок: %+v", pending)
	}

	// Одобрение: статус + членство
	if err := repo.SetJoinRequestStatus(ctx, req.ID, model.JoinRequestApproved); err != nil {
		t.Fatalf("SetJoinRequestStatus() ошибка: %v", err)
	}
	if err := repo.AddMember(ctx, f.ID, member.ID); err != nil {
		t.Fatalf("AddMember(member) ошибка: %v", err)
	}

	members, err := repo.ListMembers(ctx, f.ID)
	if err != nil {
		t.Fatalf("ListMembers() ошибка: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("ожидалось 2 участника, получено %d", len(members))
	}

	got, err := repo.GetByMemberID(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetByMemberID() ошибка: %v", err)
	}
	if got.ID != f.ID {
		t.Errorf("GetByMemberID вернул другую семью: %s", got.ID)
	}

	// Исключение участника
	if err := repo.RemoveMember(ctx, f.ID, member.ID); err != nil {
		t.Fatalf("RemoveMember() ошибка: %v", err)
	}
	if _, err := repo.GetByMemberID(ctx, member.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("после исключения ожидалась ошибка ErrNotFound, получено: %v", err)
	}
}

// --- Тесты FolderRepository ---

func TestFolderEnsureRootIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, pool, "root@example.com")
	repo := NewFolderRepository(pool)
	scope := model.PrivateScope(u.ID)

	first, err := repo.EnsureRoot(ctx, scope)
	if err != nil {
		t.Fatalf("EnsureRoot() ошибка: %v", err)
	}
	if first.Path != vpath.Root {
		t.Errorf("путь корня: %q", first.Path)
	}
	if !first.IsRoot() {
		t.Error("корень должен иметь parent_id = NULL")
	}

	second, err := repo.EnsureRoot(ctx, scope)
	if err != nil {
		t.Fatalf("повторный EnsureRoot() ошибка: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("повторный вызов вернул другую папку: %s != %s", second.ID, first.ID)
	}
}

func TestFolderEnsureRootConcurrent(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, pool, "race@example.com")
	repo := NewFolderRepository(pool)
	scope := model.PrivateScope(u.ID)

	const goroutines = 10
	ids := make([]string, goroutines)
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			root, err := repo.EnsureRoot(ctx, scope)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = root.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		if errs[i] != nil {
			t.Fatalf("горутина %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("горутина %d получила другой корень: %s != %s", i, ids[i], ids[0])
		}
	}
}

func TestFolderScopeIsolation(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	u1 := createTestUser(t, pool, "u1@example.com")
	u2 := createTestUser(t, pool, "u2@example.com")
	repo := NewFolderRepository(pool)

	root1, err := repo.EnsureRoot(ctx, model.PrivateScope(u1.ID))
	if err != nil {
		t.Fatalf("EnsureRoot(u1) ошибка: %v", err)
	}
	root2, err := repo.EnsureRoot(ctx, model.PrivateScope(u2.ID))
	if err != nil {
		t.Fatalf("EnsureRoot(u2) ошибка: %v", err)
	}
	if root1.ID == root2.ID {
		t.Fatal("корни разных пользователей должны быть разными записями")
	}

	// Одинаковый путь в разных scope — не конфликт
	docs1 := &model.FolderNode{
		Name: "Docs", ParentID: &root1.ID,
		Scope: model.PrivateScope(u1.ID), Path: "/Home/Docs",
	}
	if err := repo.Create(ctx, docs1); err != nil {
		t.Fatalf("Create(u1 Docs) ошибка: %v", err)
	}
	docs2 := &model.FolderNode{
		Name: "Docs", ParentID: &root2.ID,
		Scope: model.PrivateScope(u2.ID), Path: "/Home/Docs",
	}
	if err := repo.Create(ctx, docs2); err != nil {
		t.Fatalf("Create(u2 Docs) ошибка: %v", err)
	}

	// Папка u1 не видна через scope u2
	if _, err := repo.GetByID(ctx, model.PrivateScope(u2.ID), docs1.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("папка чужого scope должна быть невидима, получено: %v", err)
	}

	// Дубликат пути внутри одного scope — конфликт
	dup := &model.FolderNode{
		Name: "Docs", ParentID: &root1.ID,
		Scope: model.PrivateScope(u1.ID), Path: "/Home/Docs",
	}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("ожидалась ошибка ErrConflict для дубликата пути, получено: %v", err)
	}
}

func TestFolderTreeOperations(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, pool, "tree@example.com")
	repo := NewFolderRepository(pool)
	scope := model.PrivateScope(u.ID)

	root, err := repo.EnsureRoot(ctx, scope)
	if err != nil {
		t.Fatalf("EnsureRoot() ошибка: %v", err)
	}

	var children []*model.FolderNode
	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		f := &model.FolderNode{
			Name: name, ParentID: &root.ID, Scope: scope,
			Path: vpath.Join(vpath.Root, name),
		}
		if err := repo.Create(ctx, f); err != nil {
			t.Fatalf("Create(%s) ошибка: %v", name, err)
		}
		children = append(children, f)
	}

	got, err := repo.ListChildren(ctx, root.ID)
	if err != nil {
		t.Fatalf("ListChildren() ошибка: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ожидалось 3 дочерних папки, получено %d", len(got))
	}
	if got[0].Name != "Alpha" {
		t.Errorf("сортировка по имени нарушена: %s", got[0].Name)
	}

	// Переименование
	beta := children[1]
	beta.Name = "Delta"
	beta.Path = "/Home/Delta"
	if err := repo.Update(ctx, beta); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	byPath, err := repo.GetByPath(ctx, scope, "/Home/Delta")
	if err != nil {
		t.Fatalf("GetByPath() после переименования ошибка: %v", err)
	}
	if byPath.ID != beta.ID {
		t.Errorf("GetByPath вернул другую папку: %s", byPath.ID)
	}

	// Удаление
	if err := repo.Delete(ctx, children[0].ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := repo.GetByID(ctx, scope, children[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("после удаления ожидалась ошибка ErrNotFound, получено: %v", err)
	}
}

// --- Тесты FileRepository ---

func TestFileRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, pool, "files@example.com")
	folderRepo := NewFolderRepository(pool)
	repo := NewFileRepository(pool)
	scope := model.PrivateScope(u.ID)

	root, err := folderRepo.EnsureRoot(ctx, scope)
	if err != nil {
		t.Fatalf("EnsureRoot() ошибка: %v", err)
	}

	f := &model.FileRecord{
		Name:           "отчёт.pdf",
		ContentType:    "application/pdf",
		Size:           1024,
		BlobPath:       fmt.Sprintf("private/%s/Home/file-1-abc.pdf", u.ID),
		Scope:          scope,
		ParentFolderID: root.ID,
	}
	if err := repo.Create(ctx, f); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if f.ID == "" || f.UploadDate.IsZero() {
		t.Error("ID или UploadDate не установлены")
	}

	got, err := repo.GetByID(ctx, scope, f.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.Name != "отчёт.pdf" || got.Size != 1024 {
		t.Errorf("неверные данные файла: %+v", got)
	}
	if !got.Scope.IsPrivate() || got.Scope.ID != u.ID {
		t.Errorf("неверный scope: %v", got.Scope)
	}

	byName, err := repo.GetByName(ctx, root.ID, "отчёт.pdf")
	if err != nil {
		t.Fatalf("GetByName() ошибка: %v", err)
	}
	if byName.ID != f.ID {
		t.Errorf("GetByName вернул другой файл: %s", byName.ID)
	}

	// Расшаривание: каждый вызов инвертирует флаг
	if shared, err := repo.ToggleShared(ctx, f.ID); err != nil || !shared {
		t.Fatalf("ToggleShared() = (%v, %v), ожидалось (true, nil)", shared, err)
	}
	got, _ = repo.GetAnyByID(ctx, f.ID)
	if !got.IsShared {
		t.Error("флаг is_shared не установлен")
	}
	if shared, err := repo.ToggleShared(ctx, f.ID); err != nil || shared {
		t.Fatalf("повторный ToggleShared() = (%v, %v), ожидалось (false, nil)", shared, err)
	}

	// Перебазирование blob-путей поддерева
	oldPrefix := fmt.Sprintf("private/%s/Home", u.ID)
	newPrefix := fmt.Sprintf("private/%s/Home/Архив", u.ID)
	if err := repo.RebaseBlobPaths(ctx, oldPrefix, newPrefix); err != nil {
		t.Fatalf("RebaseBlobPaths() ошибка: %v", err)
	}
	rebased, _ := repo.GetAnyByID(ctx, f.ID)
	if rebased.BlobPath != newPrefix+"/file-1-abc.pdf" {
		t.Errorf("blob_path не перебазирован: %q", rebased.BlobPath)
	}

	list, err := repo.ListByFolder(ctx, root.ID)
	if err != nil {
		t.Fatalf("ListByFolder() ошибка: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ожидался 1 файл, получено %d", len(list))
	}

	if err := repo.Delete(ctx, f.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := repo.GetByID(ctx, scope, f.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("после удаления ожидалась ошибка ErrNotFound, получено: %v", err)
	}
}

// --- Тесты MedicalRecordRepository ---

func TestMedicalRecordRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, pool, "med@example.com")
	other := createTestUser(t, pool, "med2@example.com")
	repo := NewMedicalRecordRepository(pool)

	rec := &model.MedicalRecord{
		UserID:     u.ID,
		RecordType: "lab result",
		Date:       time.Now().Add(-24 * time.Hour),
		Title:      "Общий анализ крови",
		Details:    []byte(`{"hemoglobin": 140}`),
		File: &model.MedicalFile{
			BlobPath:    fmt.Sprintf("medical-records/%s/file-1-abc.pdf", u.ID),
			Filename:    "анализ.pdf",
			ContentType: "application/pdf",
		},
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.File == nil || got.File.Filename != "анализ.pdf" {
		t.Errorf("прикреплённый файл потерян: %+v", got.File)
	}

	// Расшаривание
	got.IsShared = true
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}

	shared, err := repo.ListSharedByUsers(ctx, []string{u.ID, other.ID})
	if err != nil {
		t.Fatalf("ListSharedByUsers() ошибка: %v", err)
	}
	if len(shared) != 1 {
		t.Errorf("ожидалась 1 расшаренная запись, получено %d", len(shared))
	}

	mine, err := repo.ListByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListByUser() ошибка: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("ожидалась 1 запись, получено %d", len(mine))
	}

	if err := repo.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
}

// --- Тесты MedicationRepository ---

func TestMedicationRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, pool, "meds@example.com")
	repo := NewMedicationRepository(pool)

	start := time.Now()
	notes := "после еды"
	m := &model.Medication{
		UserID:        u.ID,
		Name:          "Ибупрофен",
		Dosage:        "200 мг",
		Frequency:     "2 раза в день",
		StartDate:     &start,
		Notes:         &notes,
		Reminder:      true,
		ReminderTimes: []string{"09:00", "21:00"},
	}
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	got, err := repo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if len(got.ReminderTimes) != 2 || got.ReminderTimes[0] != "09:00" {
		t.Errorf("времена напоминаний потеряны: %v", got.ReminderTimes)
	}
	if got.Notes == nil || *got.Notes != "после еды" {
		t.Errorf("заметки потеряны: %v", got.Notes)
	}

	got.Dosage = "400 мг"
	got.ReminderTimes = []string{"10:00"}
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	updated, _ := repo.GetByID(ctx, m.ID)
	if updated.Dosage != "400 мг" || len(updated.ReminderTimes) != 1 {
		t.Errorf("обновление не применилось: %+v", updated)
	}

	if err := repo.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := repo.GetByID(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("после удаления ожидалась ошибка ErrNotFound, получено: %v", err)
	}
}

// --- Тесты PlanRepository ---

func TestPlanRepository(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, pool, "plans@example.com")
	repo := NewPlanRepository(pool)

	p := &model.Plan{
		UserID:        u.ID,
		PlanType:      "study",
		StartDate:     time.Now(),
		EndDate:       time.Now().Add(7 * 24 * time.Hour),
		Description:   "Подготовка к экзамену по математике",
		GeneratedPlan: "# План\n\nДень 1: повторение...",
		RawResponse:   []byte(`{"candidates": []}`),
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	list, err := repo.ListByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListByUser() ошибка: %v", err)
	}
	if len(list) != 1 || list[0].GeneratedPlan == "" {
		t.Fatalf("неверный список планов: %+v", list)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := repo.GetByID(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("после удаления ожидалась ошибка ErrNotFound, получено: %v", err)
	}
}
