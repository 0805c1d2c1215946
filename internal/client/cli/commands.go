package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/otpvault/internal/client/models"
	"github.com/dmitrijs2005/otpvault/internal/common"
	"github.com/dmitrijs2005/otpvault/internal/cryptox"
	"github.com/dmitrijs2005/otpvault/internal/otp"
)

// nowFn is a test seam for code generation timestamps.
var nowFn = time.Now

// Sync forces a refresh of the account list and reports whether the
// server moved ahead of the previous snapshot.
func (a *App) Sync(ctx context.Context) error {
	if err := a.syncer.Refresh(ctx, true); err != nil {
		printlnFn("Sync failed:", err.Error())
		return err
	}
	if a.syncer.Stale() {
		printlnFn("Server had newer data; local snapshot updated. Run 'save' to refresh offline storage.")
	} else {
		printlnFn(fmt.Sprintf("Synced %d accounts.", len(a.syncer.Snapshot())))
	}
	return nil
}

// List prints every account with its current code. Online it lists the
// in-memory snapshot; offline it decrypts the stored vault.
func (a *App) List(ctx context.Context) error {
	var items []models.Account

	if a.Mode == ModeOnline {
		if err := a.syncer.Refresh(ctx, false); err != nil {
			printlnFn("Refresh failed:", err.Error())
			return err
		}
		items = a.syncer.Snapshot()
		for i := range items {
			if items[i].OtpType != models.OtpTypeTOTP {
				continue
			}
			code, err := otp.GenerateTOTP(items[i].OtpParams(), nowFn())
			if err == nil {
				items[i].OTP = code
			}
		}
	} else {
		var err error
		items, err = a.vault.LoadFromOffline(ctx)
		if err != nil {
			printlnFn("Cannot list accounts:", err.Error())
			return err
		}
	}

	for _, item := range items {
		code := "------"
		countdown := ""
		if item.OTP != nil {
			code = item.OTP.Password
			countdown = fmt.Sprintf(" (%ds left)", item.OTP.Countdown)
		}
		printlnFn(fmt.Sprintf("%3d  %-20s %-25s %s%s", item.ID, item.Service, item.Account, code, countdown))
	}
	return nil
}

// Save refreshes the snapshot and stores it encrypted for offline use.
func (a *App) Save(ctx context.Context) error {
	if err := a.syncer.Refresh(ctx, true); err != nil {
		printlnFn("Cannot save: fetch failed:", err.Error())
		return err
	}

	items := a.syncer.Snapshot()
	if err := a.vault.SaveForOffline(ctx, items); err != nil {
		printlnFn("Save failed:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Saved %d accounts for offline use.", len(items)))
	return nil
}

// Enroll records the offline profile and password.
func (a *App) Enroll(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Enter your name", os.Stdout)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter your email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	profile := models.UserProfile{ID: 1, Name: name, Email: email}
	var digest *cryptox.PasswordDigest
	if len(password) > 0 {
		digest = cryptox.NewPasswordDigest(password)
	}

	if err := a.vault.PutAuthRecord(ctx, profile, digest); err != nil {
		printlnFn("Enroll failed:", err.Error())
		return err
	}
	printlnFn("Offline profile stored.")
	return nil
}

// Login verifies the offline password and opens a session.
func (a *App) Login(ctx context.Context) error {
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ok, err := a.vault.VerifyPassword(ctx, password)
	if err != nil {
		printlnFn("Login failed:", err.Error())
		return err
	}
	if !ok {
		printlnFn("Login unsuccessful.")
		return nil
	}
	printlnFn(fmt.Sprintf("Welcome back, %s.", a.vault.Profile().Name))
	return nil
}

// AttachCredential stores possession-credential metadata alongside the
// offline profile.
func (a *App) AttachCredential(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Enter credential id", os.Stdout)
	if err != nil {
		return err
	}
	label, err := GetSimpleText(a.reader, "Enter label", os.Stdout)
	if err != nil {
		return err
	}

	attached, err := a.vault.AttachCredentials(ctx, models.CredentialInfo{CredentialID: id, Label: label})
	if err != nil {
		printlnFn("Attach failed:", err.Error())
		return err
	}
	if !attached {
		printlnFn("Nothing to attach to; run 'enroll' first.")
		return nil
	}
	printlnFn("Credential attached.")
	return nil
}

// PossessionLogin opens a session from a possession-credential assertion.
func (a *App) PossessionLogin(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Enter asserted credential id", os.Stdout)
	if err != nil {
		return err
	}
	response, err := GetSimpleText(a.reader, "Enter assertion response", os.Stdout)
	if err != nil {
		return err
	}

	ok, err := a.vault.VerifyPossession(ctx, &models.Assertion{ID: id, Response: []byte(response)})
	if err != nil {
		printlnFn("Login failed:", err.Error())
		return err
	}
	if !ok {
		printlnFn("Login unsuccessful.")
		return nil
	}
	printlnFn(fmt.Sprintf("Welcome back, %s.", a.vault.Profile().Name))
	return nil
}

// Status summarizes connectivity and offline state.
func (a *App) Status(ctx context.Context) error {
	mode := a.Mode
	if mode == ModeUnknown {
		mode = "unknown"
	}
	key := a.vault.KeyFingerprint()
	if key == "" {
		key = "none"
	}

	printlnFn("Mode:          ", string(mode))
	printlnFn("Offline data:  ", yesNo(a.vault.HasOfflineData()))
	printlnFn("Key:           ", key)
	printlnFn("Authenticated: ", yesNo(a.vault.IsAuthenticated()))
	printlnFn("Server newer:  ", yesNo(a.syncer.Stale()))

	if at, err := a.syncer.LastSyncAt(); err == nil {
		printlnFn("Last sync:     ", at.Local().Format("2006-01-02 15:04:05"))
	} else {
		printlnFn("Last sync:      never")
	}
	return nil
}

// Clear wipes all offline data after confirmation.
func (a *App) Clear(ctx context.Context) error {
	answer, err := GetSimpleText(a.reader, "This deletes all offline data. Type 'yes' to confirm", os.Stdout)
	if err != nil {
		return err
	}
	if answer != "yes" {
		printlnFn("Aborted.")
		return nil
	}

	if err := a.vault.ClearAll(ctx); err != nil {
		printlnFn("Clear failed:", err.Error())
		return err
	}
	printlnFn("Offline data cleared.")
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
