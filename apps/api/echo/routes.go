package echoapi

import (
	"net/http"
	"strings"

	"github.com/trezcool/sms/core/access"
)

type page struct {
	path   string
	name   string
	module access.Module
}

// pages are the module-classified views. Their content lives outside this service; they only
// describe themselves so that the access gate can be exercised end to end.
var pages = []page{
	// dashboards
	{path: "/admin_home/", name: "admin_home", module: access.Unclassified},
	{path: "/staff_home/", name: "staff_home", module: access.Unclassified},
	{path: "/student_home/", name: "student_home", module: access.Unclassified},
	{path: "/admin/manage_settings/", name: "manage_settings", module: access.Unclassified},
	{path: "/get_attendance", name: "get_attendance", module: access.Unclassified},

	// HOD
	{path: "/hod/manage_courses/", name: "hod_manage_courses", module: access.AdminModule},
	{path: "/staff/add", name: "add_staff", module: access.AdminModule},
	{path: "/course/add", name: "add_course", module: access.AdminModule},
	{path: "/add_session/", name: "add_session", module: access.AdminModule},
	{path: "/session/manage/", name: "manage_session", module: access.AdminModule},
	{path: "/staff/manage/", name: "manage_staff", module: access.AdminModule},
	{path: "/student/manage/", name: "manage_student", module: access.AdminModule},
	{path: "/course/manage/", name: "manage_course", module: access.AdminModule},
	{path: "/subject/manage/", name: "manage_subject", module: access.AdminModule},
	{path: "/student/view/feedback/", name: "student_feedback_message", module: access.AdminModule},
	{path: "/staff/view/feedback/", name: "staff_feedback_message", module: access.AdminModule},
	{path: "/student/view/leave/", name: "view_student_leave", module: access.AdminModule},
	{path: "/staff/view/leave/", name: "view_staff_leave", module: access.AdminModule},
	{path: "/attendance/view/", name: "admin_view_attendance", module: access.AdminModule},
	{path: "/send_student_notification/", name: "send_student_notification", module: access.AdminModule},
	{path: "/send_staff_notification/", name: "send_staff_notification", module: access.AdminModule},
	{path: "/admin_view_profile", name: "admin_view_profile", module: access.AdminModule},

	// staff
	{path: "/staff/take_attendance/", name: "staff_take_attendance", module: access.StaffModule},
	{path: "/staff/apply/leave/", name: "staff_apply_leave", module: access.StaffModule},
	{path: "/staff/feedback/", name: "staff_feedback", module: access.StaffModule},
	{path: "/staff/view/profile/", name: "staff_view_profile", module: access.StaffModule},
	{path: "/staff/attendance/take/", name: "staff_attendance_take", module: access.StaffModule},
	{path: "/staff/view/notification/", name: "staff_view_notification", module: access.StaffModule},
	{path: "/staff/result/add/", name: "staff_add_result", module: access.StaffModule},

	// student
	{path: "/student/view_profile/", name: "student_view_profile", module: access.StudentModule},
	{path: "/student/view/attendance/", name: "student_view_attendance", module: access.StudentModule},
	{path: "/student/apply/leave/", name: "student_apply_leave", module: access.StudentModule},
	{path: "/student/feedback/", name: "student_feedback", module: access.StudentModule},
	{path: "/student/view/profile/", name: "student_view_profile_detail", module: access.StudentModule},
	{path: "/student/view/notification/", name: "student_view_notification", module: access.StudentModule},
	{path: "/student/view/result/", name: "student_view_result", module: access.StudentModule},
}

func (s *server) registerRoutes() {
	s.handle(http.MethodGet, "/", access.Public, s.loginPage)
	s.handle(http.MethodGet, "/login/", access.Public, s.loginPage)
	s.handle(http.MethodPost, "/doLogin/", access.Public, s.doLogin)
	s.handle(http.MethodGet, "/logout_user/", access.Public, s.logout)

	// used by the add staff & add student forms
	s.handle(http.MethodGet, "/check_email_availability", access.AdminModule, s.checkEmailAvailability)
	s.handle(http.MethodPost, "/check_email_availability", access.AdminModule, s.checkEmailAvailability)

	for _, p := range pages {
		s.handle(http.MethodGet, p.path, p.module, s.renderPage(p))
	}
}

// routePath returns the path a route is registered under: trailing slashes are removed from
// requests before routing.
func routePath(path string) string {
	if len(path) > 1 {
		return strings.TrimRight(path, "/")
	}
	return path
}
