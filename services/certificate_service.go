package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	config "github.com/sooryaah/imat-lms/configs"
	"github.com/sooryaah/imat-lms/database"
	"github.com/sooryaah/imat-lms/models"
)

// CheckAndGenerateCertificate issues a completion certificate once for a
// finished enrollment: render HTML, print to PDF in headless Chrome, upload
// the PDF, record the Certificate row.
func CheckAndGenerateCertificate(enrollment models.Enrollment) {
	if enrollment.CompletedAt == nil || enrollment.CertificateIssued {
		return
	}

	var existing models.Certificate
	err := database.DB.
		Where("user_id = ? AND course_id = ?", enrollment.UserID, enrollment.CourseID).
		First(&existing).Error
	if err == nil {
		return
	}

	var student models.User
	if err := database.DB.First(&student, "id = ?", enrollment.UserID).Error; err != nil {
		log.Printf("🔥 Certificate: student %s not found: %v", enrollment.UserID, err)
		return
	}
	var course models.Course
	if err := database.DB.Preload("Instructor").First(&course, "id = ?", enrollment.CourseID).Error; err != nil {
		log.Printf("🔥 Certificate: course %s not found: %v", enrollment.CourseID, err)
		return
	}

	htmlData, err := generateCertificateHTML(student.FullName, course.Instructor.FullName, course.Title)
	if err != nil {
		log.Printf("🔥 Failed to generate certificate HTML: %v", err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate PDF: %v", err)
		return
	}

	uploadURL, err := uploadCertificate(pdfBytes, enrollment.UserID.String())
	if err != nil {
		log.Printf("🔥 Failed to upload certificate: %v", err)
		return
	}

	newCertificate := models.Certificate{
		UserID:         enrollment.UserID,
		CourseID:       enrollment.CourseID,
		CourseTitle:    course.Title,
		CompletionDate: *enrollment.CompletedAt,
		CertificateURL: uploadURL,
	}

	if err := database.DB.Create(&newCertificate).Error; err != nil {
		log.Printf("🔥 Failed to create certificate record for student %s: %v", enrollment.UserID, err)
		return
	}

	if err := database.DB.Model(&models.Enrollment{}).
		Where("id = ?", enrollment.ID).
		Update("certificate_issued", true).Error; err != nil {
		log.Printf("🔥 Failed to flag enrollment %s as certified: %v", enrollment.ID, err)
		return
	}

	log.Printf("✅ Generated certificate for student %s on course '%s'.", enrollment.UserID, course.Title)
}

func generateCertificateHTML(studentName, instructorName, courseTitle string) (string, error) {
	tmpl, err := template.ParseFiles("templates/certificate.html")
	if err != nil {
		return "", err
	}

	data := struct {
		StudentName    string
		InstructorName string
		CourseTitle    string
		CompletionDate string
	}{
		StudentName:    studentName,
		InstructorName: instructorName,
		CourseTitle:    courseTitle,
		CompletionDate: time.Now().Format("January 2, 2006"),
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadCertificate(fileBytes []byte, studentID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("certificates/%s_%s", studentID, uuid.New().String()),
		Folder:       "imat_lms_certificates",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
