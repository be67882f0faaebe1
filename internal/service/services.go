package service

// Services bundles what the transports call into.
type Services struct {
	Auth      AuthService
	Identity  *IdentityResolver
	Users     *UserService
	Projects  *ProjectService
	Posts     *BlogPostService
	Skills    *SkillService
	Inquiries *InquiryService
}
