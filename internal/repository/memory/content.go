package memory

import (
	"context"
	"sort"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/devfolio/internal/model"
)

func newestFirst[T any](items []T, at func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool { return at(items[i]) > at(items[j]) })
}

// Projects implements repository.ProjectRepository.
type Projects struct{ s *Store }

func (r *Projects) Create(_ context.Context, p *model.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[p.UserID]; !ok {
		return notFound("create project")
	}
	if _, ok := r.s.projects[p.ID]; ok {
		return conflict("create project")
	}
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	r.s.projects[p.ID] = *p
	return nil
}

func (r *Projects) GetByID(_ context.Context, id uuid.UUID) (*model.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, notFound("get project")
	}
	return &p, nil
}

func (r *Projects) filter(keep func(model.Project) bool) []model.Project {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Project{}
	for _, p := range r.s.projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	newestFirst(out, func(p model.Project) int64 { return p.CreatedAt.UnixNano() })
	return out
}

func (r *Projects) List(context.Context) ([]model.Project, error) {
	return r.filter(func(model.Project) bool { return true }), nil
}

func (r *Projects) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Project, error) {
	return r.filter(func(p model.Project) bool { return p.UserID == userID }), nil
}

func (r *Projects) Update(_ context.Context, id uuid.UUID, p model.ProjectPatch) (*model.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.projects[id]
	if !ok {
		return nil, notFound("update project")
	}
	setIf(&cur.Name, p.Name)
	setIf(&cur.Description, p.Description)
	setIf(&cur.TechStack, p.TechStack)
	setIf(&cur.ProjectURL, p.ProjectURL)
	setIf(&cur.GithubRepoURL, p.GithubRepoURL)
	setIf(&cur.ImageURL, p.ImageURL)
	cur.UpdatedAt = r.s.now()
	r.s.projects[id] = cur
	return &cur, nil
}

func (r *Projects) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return notFound("delete project")
	}
	delete(r.s.projects, id)
	return nil
}

// BlogPosts implements repository.BlogPostRepository.
type BlogPosts struct{ s *Store }

func (r *BlogPosts) Create(_ context.Context, p *model.BlogPost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[p.UserID]; !ok {
		return notFound("create post")
	}
	if _, ok := r.s.posts[p.ID]; ok {
		return conflict("create post")
	}
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	r.s.posts[p.ID] = *p
	return nil
}

func (r *BlogPosts) GetByID(_ context.Context, id uuid.UUID, includeDrafts bool) (*model.BlogPost, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.posts[id]
	if !ok || (!p.IsPublished && !includeDrafts) {
		return nil, notFound("get post")
	}
	return &p, nil
}

func (r *BlogPosts) filter(keep func(model.BlogPost) bool) []model.BlogPost {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.BlogPost{}
	for _, p := range r.s.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	newestFirst(out, func(p model.BlogPost) int64 { return p.CreatedAt.UnixNano() })
	return out
}

func (r *BlogPosts) ListPublished(context.Context) ([]model.BlogPost, error) {
	return r.filter(func(p model.BlogPost) bool { return p.IsPublished }), nil
}

func (r *BlogPosts) ListByUser(_ context.Context, userID uuid.UUID, includeDrafts bool) ([]model.BlogPost, error) {
	return r.filter(func(p model.BlogPost) bool {
		return p.UserID == userID && (p.IsPublished || includeDrafts)
	}), nil
}

func (r *BlogPosts) Update(_ context.Context, id uuid.UUID, p model.BlogPostPatch) (*model.BlogPost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.posts[id]
	if !ok {
		return nil, notFound("update post")
	}
	setIf(&cur.Title, p.Title)
	setIf(&cur.Content, p.Content)
	if p.IsPublished != nil {
		cur.IsPublished = *p.IsPublished
	}
	cur.UpdatedAt = r.s.now()
	r.s.posts[id] = cur
	return &cur, nil
}

func (r *BlogPosts) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[id]; !ok {
		return notFound("delete post")
	}
	delete(r.s.posts, id)
	return nil
}

// Skills implements repository.SkillRepository.
type Skills struct{ s *Store }

func (r *Skills) Create(_ context.Context, name string) (*model.Skill, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sk := range r.s.skills {
		if sk.Name == name {
			return nil, conflict("create skill")
		}
	}
	sk := model.Skill{ID: id, Name: name}
	r.s.skills[id] = sk
	return &sk, nil
}

func (r *Skills) GetByID(_ context.Context, id uuid.UUID) (*model.Skill, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sk, ok := r.s.skills[id]
	if !ok {
		return nil, notFound("get skill")
	}
	return &sk, nil
}

func (r *Skills) List(context.Context) ([]model.Skill, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Skill, 0, len(r.s.skills))
	for _, sk := range r.s.skills {
		out = append(out, sk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Skills) Rename(_ context.Context, id uuid.UUID, name string) (*model.Skill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sk, ok := r.s.skills[id]
	if !ok {
		return nil, notFound("rename skill")
	}
	for _, other := range r.s.skills {
		if other.ID != id && other.Name == name {
			return nil, conflict("rename skill")
		}
	}
	sk.Name = name
	r.s.skills[id] = sk
	return &sk, nil
}

func (r *Skills) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.skills[id]; !ok {
		return notFound("delete skill")
	}
	delete(r.s.skills, id)
	for k := range r.s.userSkills {
		if k.skill == id {
			delete(r.s.userSkills, k)
		}
	}
	return nil
}

func (r *Skills) ListForUser(_ context.Context, userID uuid.UUID) ([]model.UserSkill, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.UserSkill{}
	for k, level := range r.s.userSkills {
		if k.user == userID {
			out = append(out, model.UserSkill{UserID: k.user, SkillID: k.skill, SkillName: r.s.skills[k.skill].Name, Proficiency: level})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SkillName < out[j].SkillName })
	return out, nil
}

func (r *Skills) AddToUser(_ context.Context, userID, skillID uuid.UUID, level string) (*model.UserSkill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sk, ok := r.s.skills[skillID]
	if !ok {
		return nil, notFound("add user skill")
	}
	if _, ok := r.s.users[userID]; !ok {
		return nil, notFound("add user skill")
	}
	k := userSkillKey{userID, skillID}
	if _, exists := r.s.userSkills[k]; exists {
		return nil, conflict("add user skill")
	}
	r.s.userSkills[k] = level
	return &model.UserSkill{UserID: userID, SkillID: skillID, SkillName: sk.Name, Proficiency: level}, nil
}

func (r *Skills) SetProficiency(_ context.Context, userID, skillID uuid.UUID, level string) (*model.UserSkill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := userSkillKey{userID, skillID}
	if _, ok := r.s.userSkills[k]; !ok {
		return nil, notFound("set proficiency")
	}
	r.s.userSkills[k] = level
	return &model.UserSkill{UserID: userID, SkillID: skillID, SkillName: r.s.skills[skillID].Name, Proficiency: level}, nil
}

func (r *Skills) RemoveFromUser(_ context.Context, userID, skillID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := userSkillKey{userID, skillID}
	if _, ok := r.s.userSkills[k]; !ok {
		return notFound("remove user skill")
	}
	delete(r.s.userSkills, k)
	return nil
}

// Inquiries implements repository.InquiryRepository.
type Inquiries struct{ s *Store }

func (r *Inquiries) Create(_ context.Context, in *model.Inquiry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[in.ReceiverID]; !ok {
		return notFound("create inquiry")
	}
	if in.SenderID.Valid {
		if _, ok := r.s.users[in.SenderID.UUID]; !ok {
			return notFound("create inquiry")
		}
	}
	in.ReadStatus = false
	in.SentAt = r.s.now()
	r.s.inquiries[in.ID] = *in
	return nil
}

func (r *Inquiries) GetByID(_ context.Context, id uuid.UUID) (*model.Inquiry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	in, ok := r.s.inquiries[id]
	if !ok {
		return nil, notFound("get inquiry")
	}
	return &in, nil
}

func (r *Inquiries) filter(keep func(model.Inquiry) bool) []model.Inquiry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Inquiry{}
	for _, in := range r.s.inquiries {
		if keep(in) {
			out = append(out, in)
		}
	}
	newestFirst(out, func(in model.Inquiry) int64 { return in.SentAt.UnixNano() })
	return out
}

func (r *Inquiries) List(context.Context) ([]model.Inquiry, error) {
	return r.filter(func(model.Inquiry) bool { return true }), nil
}

func (r *Inquiries) ListReceived(_ context.Context, userID uuid.UUID) ([]model.Inquiry, error) {
	return r.filter(func(in model.Inquiry) bool { return in.ReceiverID == userID }), nil
}

func (r *Inquiries) ListSent(_ context.Context, userID uuid.UUID) ([]model.Inquiry, error) {
	return r.filter(func(in model.Inquiry) bool { return in.SenderID.Valid && in.SenderID.UUID == userID }), nil
}

func (r *Inquiries) SetReadStatus(_ context.Context, id uuid.UUID, read bool) (*model.Inquiry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	in, ok := r.s.inquiries[id]
	if !ok {
		return nil, notFound("set read status")
	}
	in.ReadStatus = read
	r.s.inquiries[id] = in
	return &in, nil
}

func (r *Inquiries) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.inquiries[id]; !ok {
		return notFound("delete inquiry")
	}
	delete(r.s.inquiries, id)
	return nil
}
