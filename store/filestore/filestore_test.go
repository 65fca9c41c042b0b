/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package filestore

import (
	"context"
	"path/filepath"
	"testing"

	"chainguard.dev/convojudge/judges/corpus"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "convojudge.json"))
}

func TestProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	project := corpus.NewProject("support corpus")
	project.AgentPrompt = "You are a support assistant."
	project.Conversations = []*corpus.Conversation{{
		ID: "c1",
		Messages: []corpus.Message{
			{Role: corpus.RoleUser, Content: "hi"},
			{Role: corpus.RoleAssistant, Content: "hello"},
		},
		TurnErrors: map[int][]corpus.TurnError{
			0: {{Label: "tone", OriginalReason: "too curt"}},
		},
	}}

	require.NoError(t, s.SaveProject(ctx, project), "failed to save project")

	// A fresh store over the same file sees the write.
	loaded, err := New(s.path).LoadProject(ctx, project.ID)
	require.NoError(t, err, "failed to reload project")
	if diff := cmp.Diff(project, loaded); diff != "" {
		t.Errorf("project round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProjectNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LoadProject(context.Background(), "missing")
	require.ErrorIs(t, err, corpus.ErrNotFound)
}

func TestSaveProjectReplacesByID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	project := corpus.NewProject("v1")
	require.NoError(t, s.SaveProject(ctx, project))
	project.Name = "v2"
	require.NoError(t, s.SaveProject(ctx, project))

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1, "re-saving a project must replace, not append")
	require.Equal(t, "v2", projects[0].Name)
}

func TestDeleteProject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	project := corpus.NewProject("doomed")
	require.NoError(t, s.SaveProject(ctx, project))
	require.NoError(t, s.DeleteProject(ctx, project.ID))
	require.ErrorIs(t, s.DeleteProject(ctx, project.ID), corpus.ErrNotFound)
}

func TestJudgeRegistry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	judge := corpus.NewJudgeAgent("context_loss", "drops context", "watch for forgotten facts")
	require.NoError(t, s.SaveJudge(ctx, judge), "failed to save judge")

	loaded, err := s.Judge(ctx, judge.ID)
	require.NoError(t, err, "failed to reload judge")
	if diff := cmp.Diff(judge, loaded); diff != "" {
		t.Errorf("judge round trip mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, s.DeleteJudge(ctx, judge.ID))
	_, err = s.Judge(ctx, judge.ID)
	require.ErrorIs(t, err, corpus.ErrNotFound)
}

func TestSaveJudgeValidates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	invalid := &corpus.JudgeAgent{ID: "j1", LabelName: "x", Prompt: "p", JudgeType: corpus.JudgeMulti}
	require.ErrorIs(t, s.SaveJudge(ctx, invalid), corpus.ErrValidation)

	judges, err := s.ListJudges(ctx)
	require.NoError(t, err)
	require.Empty(t, judges, "invalid judge must not be persisted")
}

func TestProjectsAndJudgesDoNotClobberEachOther(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	project := corpus.NewProject("corpus")
	judge := corpus.NewJudgeAgent("tone", "", "p")

	require.NoError(t, s.SaveProject(ctx, project))
	require.NoError(t, s.SaveJudge(ctx, judge))
	require.NoError(t, s.SaveMetaPrompts(ctx, corpus.MetaPrompts{Bucketing: "custom clustering"}))

	_, err := s.LoadProject(ctx, project.ID)
	require.NoError(t, err, "project lost after unrelated writes")
	_, err = s.Judge(ctx, judge.ID)
	require.NoError(t, err, "judge lost after unrelated writes")

	meta, err := s.MetaPrompts(ctx)
	require.NoError(t, err)
	require.Equal(t, "custom clustering", meta.Bucketing)
}

func TestMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	projects, err := s.ListProjects(context.Background())
	require.NoError(t, err)
	require.Empty(t, projects)
}
