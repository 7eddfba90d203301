// Package seed holds the demonstration catalog written on first load.
package seed

import (
	"time"

	"emds/internal/domain"
)

// Divisions returns the default division catalog.
func Divisions() []domain.DivisionConfig {
	return []domain.DivisionConfig{
		{ID: "d1", Code: "TEK", Name: "Teknik & Transmisi", Description: "Infrastruktur teknis, pemancar, broadcast, serta IT dan New Media."},
		{ID: "d2", Code: "KEU", Name: "Keuangan", Description: "Pengelolaan anggaran, pembayaran vendor, dan akuntansi."},
		{ID: "d3", Code: "UMU", Name: "Umum & Logistik", Description: "Pengadaan barang, keamanan, transportasi, dan fasilitas gedung."},
		{ID: "d4", Code: "PRO", Name: "Produksi & Berita", Description: "Pembuatan konten program, berita, dan manajemen talent."},
		{ID: "d5", Code: "PUS", Name: "Pengembangan Usaha", Description: "Aset bisnis, kerjasama, PNBP, dan monetisasi konten."},
		{ID: "d6", Code: "SDM", Name: "Sumber Daya Manusia", Description: "Rekrutmen, pelatihan, dan administrasi kepegawaian."},
		{ID: "d7", Code: "SPI", Name: "Satuan Pengawas Internal", Description: "Audit internal dan kepatuhan regulasi."},
		{ID: "d8", Code: "STA", Name: "Stasiun Daerah", Description: "Koordinasi operasional stasiun penyiaran daerah."},
		{ID: "d9", Code: "MED", Name: "Media Baru", Description: "Layanan digital, OTT, media sosial, dan distribusi non-konvensional."},
	}
}

// Users returns the default roster. Only reviewers carry a division.
func Users() []domain.User {
	return []domain.User{
		{ID: "u1", Name: "Budi (Admin)", Role: domain.RoleAdmin},
		{ID: "u2", Name: "Siti (Requester)", Role: domain.RoleRequester},
		{ID: "u3", Name: "Joko (Teknik)", Role: domain.RoleReviewer, Division: "TEK"},
		{ID: "u4", Name: "Rina (Keuangan)", Role: domain.RoleReviewer, Division: "KEU"},
		{ID: "u5", Name: "Pak Direktur (Exec)", Role: domain.RoleExecutive},
		{ID: "u6", Name: "Dewi (SDM)", Role: domain.RoleReviewer, Division: "SDM"},
		{ID: "u7", Name: "Andi (Umum)", Role: domain.RoleReviewer, Division: "UMU"},
		{ID: "u8", Name: "Eko (Teknik IT)", Role: domain.RoleReviewer, Division: "TEK"},
		{ID: "u9", Name: "Rudi (Bisnis)", Role: domain.RoleReviewer, Division: "PUS"},
		{ID: "u10", Name: "Tono (Daerah)", Role: domain.RoleReviewer, Division: "STA"},
		{ID: "u11", Name: "Sarah (Media)", Role: domain.RoleReviewer, Division: "MED"},
	}
}

type clock struct{ now time.Time }

func (c clock) ago(days int) string {
	return c.now.Add(-time.Duration(days) * 24 * time.Hour).UTC().Format(time.RFC3339)
}

func progress(id, solutionID string, percent int, note, evidence, at, by string) domain.SolutionProgressLog {
	return domain.SolutionProgressLog{ID: id, SolutionID: solutionID, ProgressPercent: percent, Note: note, EvidenceURL: evidence, Timestamp: at, CreatedBy: by}
}

func solution(id, subtaskID, title, desc string, feasible bool, current int, at, by string, logs ...domain.SolutionProgressLog) domain.Solution {
	if logs == nil {
		logs = []domain.SolutionProgressLog{}
	}
	return domain.Solution{
		ID: id, SubtaskID: subtaskID, Title: title, Description: desc, IsFeasible: feasible,
		CurrentProgress: current, ProgressLogs: logs, CreatedAt: at, CreatedBy: by,
	}
}

func subtask(id, caseID string, div domain.DivisionCode, status domain.TaskStatus, at string, sols ...domain.Solution) domain.Subtask {
	if sols == nil {
		sols = []domain.Solution{}
	}
	return domain.Subtask{ID: id, CaseID: caseID, Division: div, Status: status, Solutions: sols, UpdatedAt: at}
}

// Snapshot builds the first-run document with timestamps relative to now.
func Snapshot(now time.Time) domain.Snapshot {
	c := clock{now: now}
	requester := "u2"
	requesterName := "Siti (Requester)"

	cases := []domain.Case{
		{
			ID: "c-mux-01", Title: "Pengadaan MUX Sparse Auto-Switching",
			Description:   "Pengadaan MUX cadangan konfigurasi N+1 untuk backup otomatis headend transmisi digital di 3 lokasi kritis.",
			Location:      "Headend Jakarta, Surabaya, Medan",
			Urgency:       domain.UrgencyHigh,
			TargetDate:    "2024-12-01",
			Justification: "Gangguan MUX utama menyebabkan blank siaran lebih dari 5 menit.",
			AttachmentURL: "https://drive.google.com/specs/mux-req-v1.pdf",
			TemplateID:    "A", Status: domain.CaseInAssessment,
			CreatedAt: c.ago(3), UpdatedAt: c.ago(1),
		},
		{
			ID: "c-event-01", Title: "Siaran Langsung HUT RI ke-81 di IKN",
			Description:   "Liputan dan siaran langsung upacara proklamasi dari Ibu Kota Nusantara dengan 100+ kru.",
			Location:      "Ibu Kota Nusantara (IKN)",
			Urgency:       domain.UrgencyCritical,
			TargetDate:    "2026-08-17",
			Justification: "Mandat negara untuk menyiarkan upacara kenegaraan.",
			TemplateID:    "C", Status: domain.CaseWaitingExecDecision,
			CreatedAt: c.ago(7), UpdatedAt: c.ago(1),
		},
		{
			ID: "c-klik-01", Title: "Upgrade TVRI Klik: Fitur AI Generatif",
			Description:       "Personalisasi rekomendasi, auto-captioning berita, dan chatbot asisten pada platform OTT.",
			Location:          "Pusat Data & Pengembangan Digital",
			Urgency:           domain.UrgencyHigh,
			TargetDate:        "2024-12-20",
			Justification:     "Meningkatkan engagement dan aksesibilitas konten.",
			TemplateID:        "D", Status: domain.CaseInExecution,
			ExecutiveDecision: domain.DecisionApprove,
			ExecutiveNote:     "Lanjutkan, pastikan budget cloud terkontrol ketat oleh Keuangan.",
			CreatedAt:         c.ago(14), UpdatedAt: c.ago(0),
		},
		{
			ID: "c-viz-01", Title: "Modernisasi Studio Berita: Vizrt Virtual Set",
			Description:       "Sistem visual virtual untuk Studio 3 Berita termasuk pelatihan operator AR/VR.",
			Location:          "Studio 3 Senayan",
			Urgency:           domain.UrgencyMedium,
			TargetDate:        "2025-06-01",
			Justification:     "Efisiensi biaya setting fisik jangka panjang.",
			TemplateID:        "E", Status: domain.CaseInExecution,
			ExecutiveDecision: domain.DecisionApproveWithConditions,
			ExecutiveNote:     "Prioritas untuk siaran Berita Utama.",
			CreatedAt:         c.ago(7), UpdatedAt: c.ago(0),
		},
		{
			ID: "c3", Title: "Peremajaan Kamera Produksi 4K",
			Description:   "Pengadaan 5 unit kamera broadcast 4K pengganti unit yang sudah End of Life.",
			Location:      "Divisi Produksi Berita",
			Urgency:       domain.UrgencyMedium,
			TargetDate:    "2024-09-01",
			Justification: "Biaya maintenance kamera lama tidak efisien.",
			TemplateID:    domain.CustomTemplateID, Status: domain.CaseWaitingExecDecision,
			CreatedAt: c.ago(14), UpdatedAt: c.ago(3),
		},
		{
			ID: "c-tx-01", Title: "Pemancar Baru Blank Spot Kupang",
			Description:   "Pembangunan titik transmisi baru untuk area blank spot di Kupang.",
			Location:      "Kupang, NTT",
			Urgency:       domain.UrgencyLow,
			TargetDate:    "2025-03-01",
			Justification: "Cakupan siaran belum menjangkau 40% wilayah kabupaten.",
			TemplateID:    "B", Status: domain.CaseRevision,
			CreatedAt: c.ago(5), UpdatedAt: c.ago(1),
		},
		{
			ID: "c-rej-01", Title: "Sewa Helikopter Liputan Mudik",
			Description:   "Sewa helikopter untuk liputan arus mudik selama 10 hari.",
			Location:      "Jalur Pantura",
			Urgency:       domain.UrgencyMedium,
			TargetDate:    "2024-04-01",
			Justification: "Visual udara meningkatkan kualitas liputan.",
			TemplateID:    domain.CustomTemplateID, Status: domain.CaseRejected,
			ExecutiveDecision: domain.DecisionReject,
			ExecutiveNote:     "Biaya tidak sebanding, gunakan drone.",
			CreatedAt:         c.ago(40), UpdatedAt: c.ago(35),
		},
		{
			ID: "c-new-01", Title: "Pengadaan Drone Liputan Daerah",
			Description:   "Drone untuk 10 stasiun daerah.",
			Location:      "Stasiun Daerah",
			Urgency:       domain.UrgencyLow,
			Justification: "Pengganti sewa helikopter.",
			TemplateID:    domain.CustomTemplateID, Status: domain.CaseNew,
			CreatedAt: c.ago(1), UpdatedAt: c.ago(1),
		},
		{
			ID: "c-kb-01", Title: "Revitalisasi Master Control Room (MCR) Menuju HD",
			Description:   "Renovasi total MCR Jakarta dari baseband SDI ke IP (SMPTE 2110) dan renovasi fisik ruangan.",
			Location:      "Gedung GPO Lantai 3, Senayan",
			Urgency:       domain.UrgencyCritical,
			TargetDate:    "2023-11-01",
			Justification: "Peralatan existing sudah berusia 12 tahun.",
			AttachmentURL: "https://docs.tvri.go.id/project/mcr-final-report.pdf",
			TemplateID:    domain.CustomTemplateID, Status: domain.CaseCompleted,
			ExecutiveDecision: domain.DecisionApprove,
			ExecutiveNote:     "Pastikan tidak ada off-air selama migrasi.",
			CreatedAt:         c.ago(60), UpdatedAt: c.ago(30),
		},
		{
			ID: "c-sta-01", Title: "Perbaikan Menara Stasiun Sulawesi Utara",
			Description:   "Penguatan struktur menara pemancar pasca gempa.",
			Location:      "Manado",
			Urgency:       domain.UrgencyHigh,
			TargetDate:    "2024-06-01",
			Justification: "Hasil inspeksi struktur menunjukkan kemiringan 2 derajat.",
			TemplateID:    domain.CustomTemplateID, Status: domain.CaseApproved,
			ExecutiveDecision: domain.DecisionApprove,
			CreatedAt:         c.ago(50), UpdatedAt: c.ago(45),
		},
	}
	for i := range cases {
		cases[i].RequesterID = requester
		cases[i].RequesterName = requesterName
	}
	// the MCR case was raised by Teknik itself
	cases[8].RequesterID, cases[8].RequesterName = "u3", "Joko (Teknik)"

	subtasks := []domain.Subtask{
		subtask("t-mux-1", "c-mux-01", "TEK", domain.TaskOK, c.ago(1),
			solution("s-mux-1", "t-mux-1", "Spesifikasi Teknik Harmonic ProStream", "Kompatibel dengan exciter existing.", true, 0, c.ago(1), "u3")),
		subtask("t-mux-2", "c-mux-01", "KEU", domain.TaskPending, c.ago(3)),
		subtask("t-mux-3", "c-mux-01", "SDM", domain.TaskOK, c.ago(1),
			solution("s-mux-3", "t-mux-3", "Training of Trainers (ToT) Vendor", "Pelatihan 3 hari untuk 6 Kepala Transmisi Daerah.", true, 0, c.ago(1), "u6")),

		subtask("t-evt-1", "c-event-01", "PRO", domain.TaskOK, c.ago(3),
			solution("s-evt-1", "t-evt-1", "Rundown Tentatif V5", "Durasi siaran 6 jam.", true, 0, c.ago(3), "u2")),
		subtask("t-evt-2", "c-event-01", "TEK", domain.TaskOK, c.ago(3),
			solution("s-evt-2", "t-evt-2", "Sewa OB Van 4K/8K External", "Sewa unit 24 kamera dari vendor pihak ketiga.", true, 0, c.ago(3), "u3")),
		subtask("t-evt-3", "c-event-01", "SDM", domain.TaskOK, c.ago(3),
			solution("s-evt-3", "t-evt-3", "Rotasi Shift & Akomodasi", "Total 120 personil.", true, 0, c.ago(3), "u6")),
		subtask("t-evt-4", "c-event-01", "KEU", domain.TaskOK, c.ago(1),
			solution("s-evt-4", "t-evt-4", "Pengajuan Anggaran Biaya Tambahan", "Total RAB IDR 4.5 Milyar.", true, 0, c.ago(1), "u4")),
		subtask("t-evt-5", "c-event-01", "UMU", domain.TaskOK, c.ago(1),
			solution("s-evt-5", "t-evt-5", "Vendor Logistik Lokal IKN", "Katering 500 porsi per hari dan tenda VVIP.", true, 0, c.ago(1), "u7")),

		subtask("t-ai-1", "c-klik-01", "TEK", domain.TaskOK, c.ago(0),
			solution("s-ai-1", "t-ai-1", "Backend Microservice AI", "Service untuk request ke LLM dan caching response.", true, 100, c.ago(14), "u8",
				progress("l-ai-2", "s-ai-1", 100, "Deployed to Staging", "https://staging-api.tvri.go.id/health", c.ago(1), "u8"),
				progress("l-ai-1", "s-ai-1", 50, "API Wrapper done", "", c.ago(7), "u8")),
			solution("s-ai-3", "t-ai-1", "Frontend UI Chatbot & Caption", "Floating chat widget dan overlay subtitle.", true, 65, c.ago(14), "u8",
				progress("l-ai-5", "s-ai-3", 65, "Widget integration in progress", "", c.ago(0), "u8"),
				progress("l-ai-4", "s-ai-3", 30, "Mockup approved", "", c.ago(7), "u8"))),
		subtask("t-ai-2", "c-klik-01", "MED", domain.TaskOK, c.ago(2),
			solution("s-ai-2", "t-ai-2", "Integrasi Aplikasi TVRI Klik", "Rilis bertahap ke pengguna Android lalu iOS.", true, 40, c.ago(14), "u11",
				progress("l-ai-6", "s-ai-2", 40, "Beta Android", "", c.ago(2), "u11"))),
		subtask("t-ai-3", "c-klik-01", "KEU", domain.TaskOK, c.ago(10),
			solution("s-ai-5", "t-ai-3", "Alokasi Budget Cloud", "Plafon biaya cloud per kuartal.", true, 100, c.ago(14), "u4",
				progress("l-ai-7", "s-ai-5", 100, "Anggaran dicairkan", "", c.ago(10), "u4"))),

		subtask("t-viz-1", "c-viz-01", "TEK", domain.TaskOK, c.ago(0),
			solution("s-viz-1", "t-viz-1", "Instalasi Vizrt Engine", "Engine render dan camera tracking.", true, 80, c.ago(6), "u3",
				progress("l-viz-1", "s-viz-1", 80, "Tracking terkalibrasi", "", c.ago(0), "u3"))),
		subtask("t-viz-2", "c-viz-01", "PRO", domain.TaskOK, c.ago(2),
			solution("s-viz-2", "t-viz-2", "Desain Grafis Virtual Set", "Template grafis untuk Berita Utama.", true, 50, c.ago(6), "u2",
				progress("l-viz-2", "s-viz-2", 50, "Draft desain disetujui", "", c.ago(2), "u2"))),
		subtask("t-viz-3", "c-viz-01", "SDM", domain.TaskOK, c.ago(3),
			solution("s-viz-3", "t-viz-3", "Pelatihan Operator", "Pelatihan intensif operator kamera.", true, 100, c.ago(6), "u6",
				progress("l-viz-3", "s-viz-3", 100, "Pelatihan selesai", "", c.ago(3), "u6"))),
		subtask("t-viz-4", "c-viz-01", "KEU", domain.TaskNO, c.ago(5),
			solution("s-viz-4", "t-viz-4", "Pembelian Green Screen Grade A", "Tidak tersedia anggaran tahun berjalan.", false, 0, c.ago(6), "u4")),

		subtask("t-c3-1", "c3", "TEK", domain.TaskOK, c.ago(3),
			solution("s-c3-1", "t-c3-1", "Spesifikasi Kamera 4K", "Kamera dengan lensa wide dan tele.", true, 0, c.ago(10), "u3")),
		subtask("t-c3-2", "c3", "KEU", domain.TaskNO, c.ago(3),
			solution("s-c3-2", "t-c3-2", "Pembiayaan Leasing", "Leasing tidak diizinkan regulasi.", false, 0, c.ago(8), "u4")),
		subtask("t-c3-3", "c3", "PRO", domain.TaskOK, c.ago(4),
			solution("s-c3-3", "t-c3-3", "Jadwal Produksi Dokumenter", "Kamera baru dipakai mulai kuartal depan.", true, 0, c.ago(9), "u2")),

		{
			ID: "t-tx-1", CaseID: "c-tx-01", Division: "TEK", Status: domain.TaskRevision,
			RevisionNote: "Koordinat lokasi menara belum dicantumkan.",
			Solutions:    []domain.Solution{}, UpdatedAt: c.ago(1),
		},
		subtask("t-tx-2", "c-tx-01", "UMU", domain.TaskInProgress, c.ago(2),
			solution("s-tx-2", "t-tx-2", "Sewa Lahan Pemancar", "Negosiasi lahan dengan pemda.", true, 0, c.ago(2), "u7")),
		subtask("t-tx-3", "c-tx-01", "PRO", domain.TaskPending, c.ago(5)),

		subtask("t-rej-1", "c-rej-01", "UMU", domain.TaskOK, c.ago(37),
			solution("s-rej-1", "t-rej-1", "Vendor Helikopter", "Dua vendor tersedia.", true, 0, c.ago(38), "u7")),
		subtask("t-rej-2", "c-rej-01", "KEU", domain.TaskNO, c.ago(36),
			solution("s-rej-2", "t-rej-2", "Anggaran Sewa", "Melebihi pagu program.", false, 0, c.ago(37), "u4")),

		subtask("t-new-1", "c-new-01", "TEK", domain.TaskPending, c.ago(1)),
		subtask("t-new-2", "c-new-01", "STA", domain.TaskPending, c.ago(1)),

		subtask("t-kb-1-tek", "c-kb-01", "TEK", domain.TaskOK, c.ago(30),
			solution("s-kb-1-tek", "t-kb-1-tek", "Migrasi Baseband ke IP", "Router SMPTE 2110 dan video wall.", true, 100, c.ago(55), "u3",
				progress("l-kb-2", "s-kb-1-tek", 100, "Go-live MCR HD", "", c.ago(30), "u3"),
				progress("l-kb-1", "s-kb-1-tek", 40, "Instalasi router", "", c.ago(45), "u3"))),
		subtask("t-kb-1-keu", "c-kb-01", "KEU", domain.TaskOK, c.ago(32),
			solution("s-kb-1-keu", "t-kb-1-keu", "Pembayaran Termin", "Tiga termin pembayaran vendor.", true, 100, c.ago(55), "u4",
				progress("l-kb-3", "s-kb-1-keu", 100, "Termin akhir lunas", "", c.ago(32), "u4"))),
		subtask("t-kb-1-umu", "c-kb-01", "UMU", domain.TaskOK, c.ago(33),
			solution("s-kb-1-umu", "t-kb-1-umu", "Renovasi Fisik Ruangan", "Raised floor, akustik, dan pendingin presisi.", true, 100, c.ago(55), "u7",
				progress("l-kb-4", "s-kb-1-umu", 100, "Serah terima pekerjaan sipil", "", c.ago(33), "u7"))),

		subtask("t-sta-1", "c-sta-01", "STA", domain.TaskDone, c.ago(44),
			solution("s-sta-1", "t-sta-1", "Penguatan Struktur Menara", "Kontraktor lokal Manado.", true, 30, c.ago(48), "u10",
				progress("l-sta-1", "s-sta-1", 30, "Pondasi diperkuat", "", c.ago(44), "u10"))),
	}

	notes := []domain.CollaborationNote{
		{ID: "n-1", CaseID: "c-mux-01", SenderDivision: "TEK", TargetDivision: "KEU", Content: "Mohon konfirmasi pagu anggaran untuk 3 unit MUX.", Timestamp: c.ago(2), SenderName: "Joko (Teknik)"},
		{ID: "n-2", CaseID: "c-mux-01", SenderDivision: "SDM", TargetDivision: domain.TargetAll, Content: "Jadwal pelatihan menyesuaikan tanggal instalasi.", Timestamp: c.ago(1), SenderName: "Dewi (SDM)"},
	}

	logs := []domain.Log{
		{ID: "l-seed-4", CaseID: "c-tx-01", UserID: "u3", UserName: "Joko (Teknik)", Action: "Revision Requested", Details: "Koordinat lokasi menara belum dicantumkan.", Timestamp: c.ago(1)},
		{ID: "l-seed-3", CaseID: "c-viz-01", UserID: "u5", UserName: "Pak Direktur (Exec)", Action: "Executive Decision", Details: "APPROVE_WITH_CONDITIONS: Prioritas untuk siaran Berita Utama.", Timestamp: c.ago(6)},
		{ID: "l-seed-2", CaseID: "c-klik-01", UserID: "u5", UserName: "Pak Direktur (Exec)", Action: "Executive Decision", Details: "APPROVE: Lanjutkan pengembangan", Timestamp: c.ago(14)},
		{ID: "l-seed-1", CaseID: "c-rej-01", UserID: "u5", UserName: "Pak Direktur (Exec)", Action: "Executive Decision", Details: "REJECT: Biaya tidak sebanding, gunakan drone.", Timestamp: c.ago(35)},
	}

	snap := domain.Snapshot{
		Cases:              cases,
		Subtasks:           subtasks,
		Logs:               logs,
		CollaborationNotes: notes,
		Users:              Users(),
		Divisions:          Divisions(),
	}
	snap.Normalize()
	return snap
}
