package services_test

import (
	"context"
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SundayYogurt/account_service/internal/apperr"
	"github.com/SundayYogurt/account_service/internal/domain"
	"github.com/SundayYogurt/account_service/internal/helper"
	"github.com/SundayYogurt/account_service/internal/repository"
	"github.com/SundayYogurt/account_service/internal/services"
)

// ---------- account repo ----------

type fakeAccountRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byID: map[uint]domain.Account{}}
}

func (f *fakeAccountRepo) conflictLocked(acct *domain.Account) error {
	for id, existing := range f.byID {
		if id == acct.ID {
			continue
		}
		switch {
		case existing.Email == acct.Email:
			return apperr.NewConflict("email")
		case existing.Username == acct.Username:
			return apperr.NewConflict("username")
		case existing.Phone == acct.Phone:
			return apperr.NewConflict("phone")
		}
	}
	return nil
}

func (f *fakeAccountRepo) CreateAccount(acct *domain.Account) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.conflictLocked(acct); err != nil {
		return nil, err
	}

	f.nextID++
	acct.ID = f.nextID
	f.byID[acct.ID] = *acct
	return acct, nil
}

func (f *fakeAccountRepo) FindAccountById(accountID uint) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acct, ok := f.byID[accountID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := acct
	return &cp, nil
}

func (f *fakeAccountRepo) FindAccountByEmail(email string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, acct := range f.byID {
		if acct.Email == email {
			cp := acct
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeAccountRepo) SaveAccount(acct *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byID[acct.ID]; !ok {
		return apperr.ErrNotFound
	}
	if err := f.conflictLocked(acct); err != nil {
		return err
	}
	f.byID[acct.ID] = *acct
	return nil
}

func (f *fakeAccountRepo) ListAccounts(limit, offset int) ([]domain.Account, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Account
	for id := uint(1); id <= f.nextID; id++ {
		if acct, ok := f.byID[id]; ok {
			out = append(out, acct)
		}
	}
	total := int64(len(out))

	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeAccountRepo) clone() (map[uint]domain.Account, uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.byID), f.nextID
}

func (f *fakeAccountRepo) reset(byID map[uint]domain.Account, nextID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID, f.nextID = byID, nextID
}

// ---------- credential repo ----------

type fakeCredentialRepo struct {
	mu         sync.Mutex
	byAccount  map[uint]domain.Credential
	failCreate error
}

func newFakeCredentialRepo() *fakeCredentialRepo {
	return &fakeCredentialRepo{byAccount: map[uint]domain.Credential{}}
}

func (f *fakeCredentialRepo) CreateCredential(cred *domain.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCreate != nil {
		return f.failCreate
	}
	f.byAccount[cred.AccountID] = *cred
	return nil
}

func (f *fakeCredentialRepo) FindCredentialByAccountId(accountID uint) (*domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cred, ok := f.byAccount[accountID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := cred
	return &cp, nil
}

func (f *fakeCredentialRepo) RotateCredential(accountID uint, hash, salt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cred, ok := f.byAccount[accountID]
	if !ok {
		return apperr.ErrNotFound
	}
	cred.Hash = hash
	cred.Salt = salt
	cred.Generation++
	f.byAccount[accountID] = cred
	return nil
}

func (f *fakeCredentialRepo) clone() map[uint]domain.Credential {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.byAccount)
}

func (f *fakeCredentialRepo) reset(byAccount map[uint]domain.Credential) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byAccount = byAccount
}

// ---------- verification repos ----------

type fakeEmailRepo struct {
	mu        sync.Mutex
	nextID    uint
	byAccount map[uint]domain.EmailVerification
}

func newFakeEmailRepo() *fakeEmailRepo {
	return &fakeEmailRepo{byAccount: map[uint]domain.EmailVerification{}}
}

func (f *fakeEmailRepo) ReplaceEmailVerification(v *domain.EmailVerification) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.byAccount, v.AccountID)
	f.nextID++
	v.ID = f.nextID
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	f.byAccount[v.AccountID] = *v
	return nil
}

func (f *fakeEmailRepo) FindEmailVerificationByAccountId(accountID uint) (*domain.EmailVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.byAccount[accountID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := v
	return &cp, nil
}

func (f *fakeEmailRepo) FindEmailVerificationByTokenHash(hash string) (*domain.EmailVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, v := range f.byAccount {
		if v.TokenHash == hash {
			cp := v
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeEmailRepo) DeleteEmailVerificationByAccountId(accountID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byAccount, accountID)
	return nil
}

// age rewinds the artifact's created_at so resend-window tests can move past
// the rate limit without sleeping.
func (f *fakeEmailRepo) age(accountID uint, d func(v *domain.EmailVerification)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.byAccount[accountID]
	if !ok {
		return
	}
	d(&v)
	f.byAccount[accountID] = v
}

func (f *fakeEmailRepo) clone() (map[uint]domain.EmailVerification, uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.byAccount), f.nextID
}

func (f *fakeEmailRepo) reset(byAccount map[uint]domain.EmailVerification, nextID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byAccount, f.nextID = byAccount, nextID
}

type fakePhoneRepo struct {
	mu        sync.Mutex
	nextID    uint
	byAccount map[uint]domain.PhoneVerification
}

func newFakePhoneRepo() *fakePhoneRepo {
	return &fakePhoneRepo{byAccount: map[uint]domain.PhoneVerification{}}
}

func (f *fakePhoneRepo) ReplacePhoneVerification(v *domain.PhoneVerification) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.byAccount, v.AccountID)
	f.nextID++
	v.ID = f.nextID
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	f.byAccount[v.AccountID] = *v
	return nil
}

func (f *fakePhoneRepo) FindPhoneVerificationByAccountId(accountID uint) (*domain.PhoneVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.byAccount[accountID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := v
	return &cp, nil
}

func (f *fakePhoneRepo) IncrementPhoneAttempts(id uint) (*domain.PhoneVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for accountID, v := range f.byAccount {
		if v.ID == id {
			v.Attempts++
			f.byAccount[accountID] = v
			cp := v
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (f *fakePhoneRepo) DeletePhoneVerificationByAccountId(accountID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byAccount, accountID)
	return nil
}

func (f *fakePhoneRepo) age(accountID uint, d func(v *domain.PhoneVerification)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.byAccount[accountID]
	if !ok {
		return
	}
	d(&v)
	f.byAccount[accountID] = v
}

func (f *fakePhoneRepo) clone() (map[uint]domain.PhoneVerification, uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.byAccount), f.nextID
}

func (f *fakePhoneRepo) reset(byAccount map[uint]domain.PhoneVerification, nextID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byAccount, f.nextID = byAccount, nextID
}

// ---------- collaborators ----------

// fakeAtomic hands fn the shared fakes and, like the real coordinator,
// undoes their writes when fn fails.
type fakeAtomic struct {
	accounts *fakeAccountRepo
	creds    *fakeCredentialRepo
	emails   *fakeEmailRepo
	phones   *fakePhoneRepo
}

func (f *fakeAtomic) Transaction(fn func(r repository.TxRepos) error) error {
	accounts, accountsNext := f.accounts.clone()
	creds := f.creds.clone()
	emails, emailsNext := f.emails.clone()
	phones, phonesNext := f.phones.clone()

	err := fn(repository.TxRepos{
		Accounts:           f.accounts,
		Credentials:        f.creds,
		EmailVerifications: f.emails,
		PhoneVerifications: f.phones,
	})
	if err == nil {
		return nil
	}

	f.accounts.reset(accounts, accountsNext)
	f.creds.reset(creds)
	f.emails.reset(emails, emailsNext)
	f.phones.reset(phones, phonesNext)
	return err
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (f *fakeMessenger) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeMessenger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeMessenger) last() sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type sentCode struct {
	Phone   string
	Carrier string
	Code    string
}

type fakeCodeSender struct {
	mu   sync.Mutex
	sent []sentCode
	fail error
}

func (f *fakeCodeSender) SendCode(_ context.Context, phone, carrier, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, sentCode{Phone: phone, Carrier: carrier, Code: code})
	return nil
}

func (f *fakeCodeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeCodeSender) last() sentCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeProducer struct {
	mu       sync.Mutex
	messages [][2][]byte
}

func (f *fakeProducer) PublishMessage(key, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, [2][]byte{key, value})
	return nil
}

// ---------- fixture ----------

type fixture struct {
	accounts *fakeAccountRepo
	creds    *fakeCredentialRepo
	emails   *fakeEmailRepo
	phones   *fakePhoneRepo
	atomic   repository.Atomic
	mailer   *fakeMessenger
	sms      *fakeCodeSender
	producer *fakeProducer
	auth     helper.Auth
}

func newFixture() *fixture {
	accounts := newFakeAccountRepo()
	creds := newFakeCredentialRepo()
	emails := newFakeEmailRepo()
	phones := newFakePhoneRepo()

	return &fixture{
		accounts: accounts,
		creds:    creds,
		emails:   emails,
		phones:   phones,
		atomic: &fakeAtomic{
			accounts: accounts,
			creds:    creds,
			emails:   emails,
			phones:   phones,
		},
		mailer:   &fakeMessenger{},
		sms:      &fakeCodeSender{},
		producer: &fakeProducer{},
		auth:     helper.SetupAuth("test-secret"),
	}
}

func (f *fixture) accountService() services.AccountService {
	return services.NewAccountService(
		f.accounts, f.creds, f.atomic, f.auth, f.mailer, f.producer,
		zap.NewNop(), "https://accounts.test/reset?token=",
	)
}

func (f *fixture) verificationService() services.VerificationService {
	return services.NewVerificationService(
		f.accounts, f.emails, f.phones, f.atomic, f.mailer, f.sms, f.producer,
		zap.NewNop(), "https://accounts.test/verify?token=",
	)
}

func (f *fixture) adminService() services.AdminService {
	return services.NewAdminService(f.accounts, f.creds, f.atomic, f.producer, zap.NewNop())
}

// seedAccount inserts an account with a ready credential.
func (f *fixture) seedAccount(acct domain.Account, password string) *domain.Account {
	created, err := f.accounts.CreateAccount(&acct)
	if err != nil {
		panic(err)
	}

	salt, err := helper.GenerateSalt()
	if err != nil {
		panic(err)
	}
	if err := f.creds.CreateCredential(&domain.Credential{
		AccountID:  created.ID,
		Hash:       helper.HashPassword(password, salt),
		Salt:       salt,
		Generation: 1,
	}); err != nil {
		panic(err)
	}

	return created
}

func claimsFor(acct *domain.Account) *helper.AccessClaims {
	return &helper.AccessClaims{AccountID: acct.ID, Role: acct.Role}
}
