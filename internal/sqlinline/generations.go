package sqlinline

const QGenerationsSchema = `--sql 04b5df42-15fa-4169-afd5-c4f5bf999052
create table if not exists generation_records (
  id           bigserial primary key,
  provider     text not null,
  model        text not null,
  prompt       text not null,
  latency_sec  double precision not null,
  duration_sec integer,
  files        jsonb not null default '[]'::jsonb,
  metadata     jsonb not null,
  created_at   timestamptz not null default now()
);
`

const QGenerationInsert = `--sql 4132e9d7-c3d4-440e-8f02-7bf66650a165
insert into generation_records (provider, model, prompt, latency_sec, duration_sec, files, metadata, created_at)
values ($1, $2, $3, $4, nullif($5, 0), $6, $7, $8);
`

const QGenerationLatencyStats = `--sql 7f28a295-e3b6-4cef-ac23-33c42904b62a
select
  provider,
  model,
  count(*)          as runs,
  avg(latency_sec)  as avg_sec,
  min(latency_sec)  as min_sec,
  max(latency_sec)  as max_sec
from generation_records
group by provider, model
order by provider, model;
`
