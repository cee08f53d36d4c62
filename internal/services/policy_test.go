package services

import (
	"newsroom/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArticlePolicy(t *testing.T) {
	author := &models.User{ID: 1, Role: models.RoleJournalist}
	otherJournalist := &models.User{ID: 2, Role: models.RoleJournalist}
	editor := &models.User{ID: 3, Role: models.RoleEditor}
	reader := &models.User{ID: 4, Role: models.RoleReader}
	stranger := &models.User{ID: 5, Role: models.Role("admin")}

	draft := &models.Article{AuthorID: author.ID}
	published := &models.Article{AuthorID: author.ID, IsApproved: true}

	// view
	assert.True(t, CanViewArticle(nil, published))
	assert.False(t, CanViewArticle(nil, draft))
	assert.True(t, CanViewArticle(author, draft))
	assert.True(t, CanViewArticle(editor, draft))
	assert.False(t, CanViewArticle(otherJournalist, draft))
	assert.False(t, CanViewArticle(reader, draft))
	assert.False(t, CanViewArticle(stranger, draft))

	// create
	assert.True(t, CanCreateArticle(author))
	assert.False(t, CanCreateArticle(editor))
	assert.False(t, CanCreateArticle(reader))
	assert.False(t, CanCreateArticle(nil))

	// update/delete
	assert.True(t, CanModifyArticle(author, published))
	assert.True(t, CanModifyArticle(editor, draft))
	assert.False(t, CanModifyArticle(otherJournalist, published))
	assert.False(t, CanModifyArticle(reader, published))
	assert.False(t, CanModifyArticle(stranger, published))

	// approval & subscriptions
	assert.True(t, CanSetApproval(editor))
	assert.False(t, CanSetApproval(author))
	assert.True(t, CanManageSubscriptions(reader))
	assert.False(t, CanManageSubscriptions(editor))
	assert.False(t, CanManageSubscriptions(author))
	assert.False(t, CanManageSubscriptions(nil))
}

func TestGetResponseCode(t *testing.T) {
	cases := map[error]int{
		ErrPermissionDenied:                403,
		validationError("bad %s", "title"): 400,
		ErrNotFound:                        404,
		ErrNotSubscribed:                   404,
		ErrInvalidTarget:                   404,
		ErrAlreadySubscribed:               409,
		ErrUnauthorized:                    401,
		CodedError(ErrNotFound, 418):       418,
		assert.AnError:                     500,
	}
	for err, code := range cases {
		assert.Equal(t, code, GetResponseCode(err), err.Error())
	}
}
