package csvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/medicareplus/portal/internal/config"
	"github.com/medicareplus/portal/internal/domain/schedule"
)

func storageConfig(t *testing.T) config.StorageConfig {
	t.Helper()
	return config.StorageConfig{
		DataDir:           t.TempDir(),
		PatientsFile:      "patients.csv",
		ScheduleFile:      "schedule.csv",
		VideoScheduleFile: "video_schedule.csv",
		AppointmentsFile:  "appointments.csv",
		RemindersFile:     "reminders.csv",
		AssessmentsFile:   "symptom_checks.csv",
	}
}

func TestScheduleRepoKeepsModalitiesSeparate(t *testing.T) {
	cfg := storageConfig(t)
	repo := NewScheduleRepository(cfg)
	ctx := context.Background()

	inPerson := []schedule.Slot{
		{Doctor: "Smith", Date: "2026-09-01", TimeSlot: "09:00", Status: schedule.StatusAvailable, Modality: schedule.ModalityInPerson},
	}
	video := []schedule.Slot{
		{Doctor: "Patel", Date: "2026-09-02", TimeSlot: "10:00", Status: schedule.StatusBooked, Modality: schedule.ModalityVideo},
		{Doctor: "Patel", Date: "2026-09-02", TimeSlot: "11:00", Status: schedule.StatusAvailable, Modality: schedule.ModalityVideo},
	}
	if err := repo.Save(ctx, schedule.ModalityInPerson, inPerson); err != nil {
		t.Fatalf("saving in-person table: %v", err)
	}
	if err := repo.Save(ctx, schedule.ModalityVideo, video); err != nil {
		t.Fatalf("saving video table: %v", err)
	}

	gotInPerson, err := repo.Load(ctx, schedule.ModalityInPerson)
	if err != nil {
		t.Fatalf("loading in-person table: %v", err)
	}
	gotVideo, err := repo.Load(ctx, schedule.ModalityVideo)
	if err != nil {
		t.Fatalf("loading video table: %v", err)
	}
	if len(gotInPerson) != 1 || len(gotVideo) != 2 {
		t.Fatalf("got %d in-person and %d video slots, want 1 and 2", len(gotInPerson), len(gotVideo))
	}
	if gotInPerson[0].Modality != schedule.ModalityInPerson {
		t.Errorf("in-person slot tagged %s", gotInPerson[0].Modality)
	}
	if gotVideo[0].Modality != schedule.ModalityVideo {
		t.Errorf("video slot tagged %s", gotVideo[0].Modality)
	}

	// Two distinct files back the two tables.
	if _, err := os.Stat(filepath.Join(cfg.DataDir, cfg.ScheduleFile)); err != nil {
		t.Errorf("in-person table file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.DataDir, cfg.VideoScheduleFile)); err != nil {
		t.Errorf("video table file missing: %v", err)
	}
}

func TestScheduleRepoLegacyLabels(t *testing.T) {
	cfg := storageConfig(t)

	content := "doctor,date,time_slot,status\n" +
		"Smith,2026-09-01,09:00,Available\n" +
		"Smith,2026-09-01,10:00,Unavailable\n" +
		"Smith,2026-09-01,11:00,SomethingOdd\n"
	if err := os.WriteFile(filepath.Join(cfg.DataDir, cfg.VideoScheduleFile), []byte(content), 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	repo := NewScheduleRepository(cfg)
	slots, err := repo.Load(context.Background(), schedule.ModalityVideo)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("got %d slots, want 3", len(slots))
	}
	if slots[0].Status != schedule.StatusAvailable {
		t.Errorf("row 0 status = %s, want Available", slots[0].Status)
	}
	// The legacy video table wrote "Unavailable" for blocked slots.
	if slots[1].Status != schedule.StatusBlocked {
		t.Errorf("row 1 status = %s, want Blocked", slots[1].Status)
	}
	// Unknown labels load as Blocked instead of failing the table.
	if slots[2].Status != schedule.StatusBlocked {
		t.Errorf("row 2 status = %s, want Blocked", slots[2].Status)
	}
}

func TestAppointmentRepoAssignsIDToLegacyRows(t *testing.T) {
	cfg := storageConfig(t)

	content := "id,name,dob,visit_type,doctor,date,time_slot,consult_type,insurance_carrier,email,created_at\n" +
		",Alice Wong,02-05-1979,New,Smith,2026-09-01,09:00,In-person,Acme Health,alice@example.com,\n"
	if err := os.WriteFile(filepath.Join(cfg.DataDir, cfg.AppointmentsFile), []byte(content), 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	repo := NewAppointmentRepository(cfg)
	appts, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("got %d appointments, want 1", len(appts))
	}
	if appts[0].ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("legacy row did not get an id assigned")
	}
	if appts[0].Modality != schedule.ModalityInPerson {
		t.Errorf("modality = %s, want in_person", appts[0].Modality)
	}
}

func TestPatientRepoFindByEmailMostRecentWins(t *testing.T) {
	cfg := storageConfig(t)

	content := "name,dob,email,phone,doctor,insurance_carrier\n" +
		"Alice Wong,02-05-1979,alice@example.com,555-0101,Smith,Acme Health\n" +
		"Alice W,02-05-1979,ALICE@example.com,555-0202,Patel,Union Care\n"
	if err := os.WriteFile(filepath.Join(cfg.DataDir, cfg.PatientsFile), []byte(content), 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	repo := NewPatientRepository(cfg)
	p, err := repo.FindByEmail(context.Background(), "Alice@Example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if p.Doctor != "Patel" || p.Phone != "555-0202" {
		t.Errorf("got %+v, want the most recent row (doctor Patel)", p)
	}
}
